package roster

import "github.com/mmynk/tuitionbook/internal/models"

func keySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}

// PatchClass returns a copy of list with the class name of the students in
// keys set to className. list is not modified.
func PatchClass(list []models.Student, keys []string, className string) []models.Student {
	set := keySet(keys)
	out := make([]models.Student, len(list))
	for i, s := range list {
		if !set[s.Key()] {
			out[i] = s
			continue
		}
		c := s.Clone()
		if c.Info == nil {
			c.Info = &models.StudentInfo{}
		}
		if c.Info.Class == nil {
			c.Info.Class = &models.ClassRef{}
		}
		c.Info.Class.ClassName = className
		out[i] = c
	}
	return out
}

// PatchStatus returns a copy of list with the students in keys set active or
// inactive. The status string is rewritten only on students that carry one.
func PatchStatus(list []models.Student, keys []string, active bool) []models.Student {
	set := keySet(keys)
	out := make([]models.Student, len(list))
	for i, s := range list {
		if !set[s.Key()] {
			out[i] = s
			continue
		}
		c := s.Clone()
		v := active
		c.Active = &v
		if c.Status != "" {
			c.Status = models.StatusString(active)
		}
		out[i] = c
	}
	return out
}
