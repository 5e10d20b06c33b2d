package coupon

// reservedCodes can never be issued.
var reservedCodes = NewCodeSet("ADMIN", "AUTH", "NULL", "UNDEFINED")

// IsReserved reports whether a normalised code is a reserved word.
func IsReserved(code string) bool {
	return reservedCodes.Contains(code)
}

// mapCodeSet implements CodeSet using a map for O(1) lookups.
type mapCodeSet struct {
	codes map[string]struct{}
}

// NewCodeSet creates a new map-based code set holding codes.
func NewCodeSet(codes ...string) CodeSet {
	s := &mapCodeSet{
		codes: make(map[string]struct{}, len(codes)),
	}
	for _, c := range codes {
		s.Add(c)
	}
	return s
}

// Contains checks if a code exists in the set.
func (s *mapCodeSet) Contains(code string) bool {
	_, exists := s.codes[code]
	return exists
}

// Add adds a code to the set.
func (s *mapCodeSet) Add(code string) bool {
	if _, exists := s.codes[code]; exists {
		return false
	}
	s.codes[code] = struct{}{}
	return true
}

// Size returns the number of codes in the set.
func (s *mapCodeSet) Size() int {
	return len(s.codes)
}
