package orders

import "fmt"

type Status string

const (
	StatusNew     Status = "NEW"
	StatusOngoing Status = "ONGOING"
	StatusPaid    Status = "PAID"
)

var validNext = map[Status]map[Status]bool{
	StatusNew:     {StatusOngoing: true},
	StatusOngoing: {StatusPaid: true},
	StatusPaid:    {},
}

func CanTransition(from, to Status) bool {
	return from == to || validNext[from][to]
}

// ParseStatus validates status text coming off the wire or a row.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusOngoing, StatusPaid:
		return Status(s), nil
	}
	return "", fmt.Errorf("orders: unknown status %q", s)
}
