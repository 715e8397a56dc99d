package availability

// Key identifies a slot.
type Key struct {
	StaffID string
	Date    string
	Time    string
}

// Occupant is anything that can hold a slot.
type Occupant interface {
	SlotKey() Key
	Cancelled() bool
}

// Slot is one grid entry as shown to a customer picking a time.
type Slot struct {
	Time     string `json:"time"`
	Occupied bool   `json:"occupied"`
}

// IsOccupied reports whether a non-cancelled occupant holds exactly
// (staffID, date, t). Values are compared as strings, so callers pass
// normalized dates and times. An empty staff or date never blocks.
func IsOccupied[T Occupant](staffID, date, t string, occupants []T) bool {
	if staffID == "" || date == "" {
		return false
	}
	want := Key{StaffID: staffID, Date: date, Time: t}
	for _, o := range occupants {
		if !o.Cancelled() && o.SlotKey() == want {
			return true
		}
	}
	return false
}

// Grid marks every daily slot for one staff member and day.
func Grid[T Occupant](staffID, date string, occupants []T) []Slot {
	taken := make(map[string]bool)
	if staffID != "" && date != "" {
		for _, o := range occupants {
			k := o.SlotKey()
			if !o.Cancelled() && k.StaffID == staffID && k.Date == date {
				taken[k.Time] = true
			}
		}
	}

	slots := GenerateDailySlots()
	out := make([]Slot, len(slots))
	for i, t := range slots {
		out[i] = Slot{Time: t, Occupied: taken[t]}
	}
	return out
}

// Free lists the unoccupied times of Grid.
func Free[T Occupant](staffID, date string, occupants []T) []string {
	var out []string
	for _, s := range Grid(staffID, date, occupants) {
		if !s.Occupied {
			out = append(out, s.Time)
		}
	}
	return out
}
