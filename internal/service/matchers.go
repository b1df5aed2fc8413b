package service

import (
	"strconv"
	"strings"

	"github.com/spec-kit/mileage-skill/internal/domain"
)

// ExtractPhoneSuffix strips every non-digit and returns the last four
// digits. Fewer than four digits yield "".
func ExtractPhoneSuffix(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 4 {
		return ""
	}
	return digits[len(digits)-4:]
}

// MatchPerson scans roster rows in order, member slot before staff slot,
// and returns the first slot whose trimmed name and phone suffix both
// equal the targets.
func MatchPerson(rows [][]string, layout domain.RosterLayout, name, phone4 string) (*domain.Person, bool) {
	name = strings.TrimSpace(name)
	phone4 = strings.TrimSpace(phone4)
	if name == "" || phone4 == "" {
		return nil, false
	}

	slots := []struct {
		role  domain.Role
		name  int
		phone int
	}{
		{domain.RoleMember, layout.MemberName, layout.MemberPhone},
		{domain.RoleStaff, layout.StaffName, layout.StaffPhone},
	}

	for _, row := range rows {
		for _, slot := range slots {
			slotName := strings.TrimSpace(domain.Cell(row, slot.name))
			if slotName == "" || slotName != name {
				continue
			}
			suffix := ExtractPhoneSuffix(domain.Cell(row, slot.phone))
			if suffix == "" || suffix != phone4 {
				continue
			}
			return &domain.Person{Role: slot.role, Name: slotName, Phone4: suffix}, true
		}
	}
	return nil, false
}

// MatchPoints returns the first points row whose trimmed name equals name.
// A matching row with an unusable value yields a record with nil Points.
func MatchPoints(rows [][]string, layout domain.PointsLayout, name string) (*domain.PointsRecord, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for _, row := range rows {
		rowName := strings.TrimSpace(domain.Cell(row, layout.Name))
		if rowName == "" || rowName != name {
			continue
		}
		return &domain.PointsRecord{
			Name:   rowName,
			Points: ParsePoints(domain.Cell(row, layout.Total)),
		}, true
	}
	return nil, false
}

// ParsePoints keeps only digits, '.' and '-' and parses the longest
// leading decimal number, so "1,234.5점" is 1234.5 and "N/A" is nil.
func ParsePoints(value string) *float64 {
	var b strings.Builder
	for _, r := range value {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	prefix := numericPrefix(b.String())
	if prefix == "" {
		return nil
	}
	n, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return nil
	}
	return &n
}

// numericPrefix returns the longest prefix of s of the form -?\d*(\.\d*)?
// containing at least one digit.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	end := i
	if i < len(s) && s[i] == '.' {
		i++
		frac := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			frac++
		}
		if frac > 0 {
			end = i
			digits += frac
		}
	}
	if digits == 0 {
		return ""
	}
	return s[:end]
}
