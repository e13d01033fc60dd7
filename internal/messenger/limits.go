package messenger

import "unicode/utf8"

// Range is an inclusive [Min, Max] bound.
type Range struct {
	Min int
	Max int
}

func (r Range) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

// Limits holds every input bound enforced by the validators. String bounds
// count runes, the attachment file bound counts bytes.
type Limits struct {
	UserName       Range
	UserLastName   Range
	UserEmail      Range
	UserPassword   Range
	ChatName       Range
	ChatMembers    Range
	MessageText    Range
	AttachmentType Range
	AttachmentFile Range
}

func DefaultLimits() Limits {
	return Limits{
		UserName:       Range{Min: 1, Max: 25},
		UserLastName:   Range{Min: 1, Max: 25},
		UserEmail:      Range{Min: 1, Max: 254},
		UserPassword:   Range{Min: 1, Max: 25},
		ChatName:       Range{Min: 1, Max: 50},
		ChatMembers:    Range{Min: 1, Max: 10},
		MessageText:    Range{Min: 1, Max: 7500},
		AttachmentType: Range{Min: 1, Max: 25},
		AttachmentFile: Range{Min: 1, Max: 104857600},
	}
}

func runes(s string) int {
	return utf8.RuneCountInString(s)
}
