package timeline

import (
	"strings"

	"github.com/noah-isme/term-timeline/internal/models"
)

// Degree codes that route a major to the certificate track.
var certificateDegrees = map[string]struct{}{"V": {}, "C": {}}

// Dictionaries are the lookups the program mapper consults. They are built
// elsewhere and only read here.
type Dictionaries struct {
	Majors   map[string]string
	Active   map[string]models.ProgramEntry
	Inactive map[string]models.ProgramEntry
}

// NewDictionaries indexes the major definitions and the program entries.
func NewDictionaries(majors []models.MajorDefinition, programs []models.ProgramEntry) *Dictionaries {
	d := &Dictionaries{
		Majors:   make(map[string]string, len(majors)),
		Active:   make(map[string]models.ProgramEntry),
		Inactive: make(map[string]models.ProgramEntry),
	}
	for _, m := range majors {
		d.Majors[strings.TrimSpace(m.MajorCode)] = strings.TrimSpace(m.DegreeCode)
	}
	for _, p := range programs {
		key := ProgramKey(p.DegreeCode, p.MajorCode, p.ConcentrationCode)
		if p.Active {
			d.Active[key] = p
		} else {
			d.Inactive[key] = p
		}
	}
	return d
}

// ProgramKey builds the composite degree/major/concentration lookup key.
func ProgramKey(degree, major, concentration string) string {
	return strings.Join([]string{
		strings.TrimSpace(degree),
		strings.TrimSpace(major),
		strings.TrimSpace(concentration),
	}, "|")
}

func (d *Dictionaries) resolve(active bool, degree, major, concentration string) (models.ProgramAssignment, bool) {
	dict := d.Inactive
	if active {
		dict = d.Active
	}
	entry, ok := dict[ProgramKey(degree, major, concentration)]
	if !ok {
		return models.ProgramAssignment{}, false
	}
	return entry.Assignment(), true
}

// MapStats counts the mapper's data-quality conditions.
type MapStats struct {
	Ambiguous  int
	Unresolved int
	Defaults   int
}

type majorCandidate struct {
	major         string
	concentration string
	degree        string
}

// MapPrograms resolves slot 1, slot 2 and the certificate track for every
// record of one entity. Classify must have run first: the active dictionary is
// used when the entity's latest record is active.
func MapPrograms(tl *EntityTimeline, dicts *Dictionaries, opts Options) MapStats {
	var stats MapStats
	if len(tl.Records) == 0 {
		return stats
	}
	active := tl.Records[len(tl.Records)-1].Status == models.EnrollmentActive

	for i, rec := range tl.Records {
		degreeMajors, certificates := splitCandidates(rec.Majors, dicts, opts)
		if len(degreeMajors) > 2 {
			stats.Ambiguous++
			degreeMajors = degreeMajors[:2]
		}

		slots := make([]models.ProgramAssignment, 2)
		for s, c := range degreeMajors {
			assignment, ok := dicts.resolve(active, c.degree, c.major, c.concentration)
			if !ok {
				stats.Unresolved++
				continue
			}
			slots[s] = assignment
		}
		rec.Slot1, rec.Slot2 = slots[0], slots[1]
		if rec.Slot1.Degree != "" && rec.Slot1.Degree == rec.Slot2.Degree {
			rec.Slot2 = models.ProgramAssignment{}
		}

		if len(certificates) > 0 {
			c := certificates[0]
			if assignment, ok := dicts.resolve(active, c.degree, c.major, c.concentration); ok {
				rec.Certificate = assignment
			} else {
				stats.Unresolved++
			}
		}

		if i == 0 && rec.Slot1.IsZero() && rec.Slot2.IsZero() {
			rec.Slot1 = opts.DefaultProgram
			stats.Defaults++
		}
	}
	return stats
}

// splitCandidates dedupes a period's majors in arrival order, attaches the
// dictionary degree code, and separates certificate majors from degree majors.
func splitCandidates(majors []models.MajorSlot, dicts *Dictionaries, opts Options) (degree, certificate []majorCandidate) {
	seen := make(map[string]struct{}, len(majors))
	for _, m := range majors {
		code := strings.TrimSpace(m.Major)
		if code == "" {
			continue
		}
		if code == opts.VocationalMajor && opts.NonDegreeAdultMajor != "" {
			code = opts.NonDegreeAdultMajor
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		c := majorCandidate{major: code, concentration: m.Concentration, degree: dicts.Majors[code]}
		if inSet(certificateDegrees, c.degree) {
			certificate = append(certificate, c)
			continue
		}
		degree = append(degree, c)
	}
	return degree, certificate
}
