package domain

// RosterLayout holds zero-based column offsets of the roster sheet.
// Each row carries a member slot and a staff slot.
type RosterLayout struct {
	MemberName  int
	MemberPhone int
	StaffName   int
	StaffPhone  int
}

// PointsLayout holds zero-based column offsets of the points sheet.
type PointsLayout struct {
	Name  int
	Total int
}

// DefaultRosterLayout is the production roster: member L/R, staff C/I.
func DefaultRosterLayout() RosterLayout {
	return RosterLayout{MemberName: 11, MemberPhone: 17, StaffName: 2, StaffPhone: 8}
}

// DefaultPointsLayout is the production points sheet: name B, total AF.
func DefaultPointsLayout() PointsLayout {
	return PointsLayout{Name: 1, Total: 31}
}

// Cell returns row[idx] or "" when the row is too short.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
