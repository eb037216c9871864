package schedule

import "github.com/jakechorley/camp-scheduler/pkg/core/model"

// QualifiedStaff filters the roster to members qualified for the
// program. Qualification gates the candidate pool only; it does not
// block assignment of an unqualified member.
func QualifiedStaff(roster []model.Staff, p model.Program) []model.Staff {
	var out []model.Staff
	for _, s := range roster {
		if s.QualifiedFor(p) {
			out = append(out, s)
		}
	}
	return out
}

// StaffByID looks a member up by stable ID
func StaffByID(roster []model.Staff, id string) *model.Staff {
	for i := range roster {
		if roster[i].ID == id {
			return &roster[i]
		}
	}
	return nil
}

// StaffByName looks a member up by display name. Names are not
// guaranteed unique; the first match wins.
func StaffByName(roster []model.Staff, name string) *model.Staff {
	for i := range roster {
		if roster[i].Name == name {
			return &roster[i]
		}
	}
	return nil
}
