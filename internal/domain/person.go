package domain

// Role distinguishes the two person slots of a roster row.
type Role string

const (
	RoleMember Role = "멤버"
	RoleStaff  Role = "스태프"
)

// Person is a roster entry matched by name and phone suffix.
type Person struct {
	Role   Role
	Name   string
	Phone4 string
}

// PointsRecord is the points sheet entry for one name. Points is nil when
// the cell is empty or not numeric.
type PointsRecord struct {
	Name   string
	Points *float64
}

// HasPoints reports whether the record carries a usable value.
func (r *PointsRecord) HasPoints() bool {
	return r != nil && r.Points != nil
}
