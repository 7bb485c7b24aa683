package timeline

import "github.com/noah-isme/term-timeline/internal/models"

// Carry-forward field flags.
const (
	CarrySlot1College models.CarryMask = 1 << iota
	CarrySlot1Degree
	CarrySlot1Major
	CarrySlot1Concentration
	CarrySlot1Program
	CarrySlot2College
	CarrySlot2Degree
	CarrySlot2Major
	CarrySlot2Concentration
	CarrySlot2Program
	CarryLevel
)

const (
	carrySlot1 = CarrySlot1College | CarrySlot1Degree | CarrySlot1Major | CarrySlot1Concentration | CarrySlot1Program
	carrySlot2 = CarrySlot2College | CarrySlot2Degree | CarrySlot2Major | CarrySlot2Concentration | CarrySlot2Program
)

type carryField struct {
	mask models.CarryMask
	get  func(*models.PeriodRecord) string
	set  func(*models.PeriodRecord, string)
}

var carryFields = []carryField{
	{CarrySlot1College, func(r *models.PeriodRecord) string { return r.Slot1.College }, func(r *models.PeriodRecord, v string) { r.Slot1.College = v }},
	{CarrySlot1Degree, func(r *models.PeriodRecord) string { return r.Slot1.Degree }, func(r *models.PeriodRecord, v string) { r.Slot1.Degree = v }},
	{CarrySlot1Major, func(r *models.PeriodRecord) string { return r.Slot1.Major }, func(r *models.PeriodRecord, v string) { r.Slot1.Major = v }},
	{CarrySlot1Concentration, func(r *models.PeriodRecord) string { return r.Slot1.Concentration }, func(r *models.PeriodRecord, v string) { r.Slot1.Concentration = v }},
	{CarrySlot1Program, func(r *models.PeriodRecord) string { return r.Slot1.Program }, func(r *models.PeriodRecord, v string) { r.Slot1.Program = v }},
	{CarrySlot2College, func(r *models.PeriodRecord) string { return r.Slot2.College }, func(r *models.PeriodRecord, v string) { r.Slot2.College = v }},
	{CarrySlot2Degree, func(r *models.PeriodRecord) string { return r.Slot2.Degree }, func(r *models.PeriodRecord, v string) { r.Slot2.Degree = v }},
	{CarrySlot2Major, func(r *models.PeriodRecord) string { return r.Slot2.Major }, func(r *models.PeriodRecord, v string) { r.Slot2.Major = v }},
	{CarrySlot2Concentration, func(r *models.PeriodRecord) string { return r.Slot2.Concentration }, func(r *models.PeriodRecord, v string) { r.Slot2.Concentration = v }},
	{CarrySlot2Program, func(r *models.PeriodRecord) string { return r.Slot2.Program }, func(r *models.PeriodRecord, v string) { r.Slot2.Program = v }},
	{CarryLevel, func(r *models.PeriodRecord) string { return string(r.Level) }, func(r *models.PeriodRecord, v string) { r.Level = models.LevelCode(v) }},
}

// CarryForward fills null program and level fields with the nearest earlier
// observed value of the same entity, at most window records back (zero means
// unbounded). Filled fields are flagged in Carried and never act as a source,
// so running it again on its own output changes nothing.
//
// A period never ends up with both slots on the same degree. When carrying
// would cause that, the carried slot is cleared again, slot 2 before slot 1.
func CarryForward(records []*models.PeriodRecord, window int) {
	for _, f := range carryFields {
		last, lastIdx := "", -1
		for i, rec := range records {
			if v := f.get(rec); v != "" && !rec.Carried.Has(f.mask) {
				last, lastIdx = v, i
				continue
			}
			if lastIdx >= 0 && (window <= 0 || i-lastIdx <= window) {
				f.set(rec, last)
				rec.Carried |= f.mask
				continue
			}
			if rec.Carried.Has(f.mask) {
				f.set(rec, "")
				rec.Carried &^= f.mask
			}
		}
	}
	for _, rec := range records {
		dedupeSlots(rec)
	}
}

func dedupeSlots(rec *models.PeriodRecord) {
	if rec.Slot1.Degree == "" || rec.Slot1.Degree != rec.Slot2.Degree {
		return
	}
	switch {
	case rec.Carried.Has(CarrySlot2Degree):
		clearCarried(rec, carrySlot2)
	case rec.Carried.Has(CarrySlot1Degree):
		clearCarried(rec, carrySlot1)
	}
}

func clearCarried(rec *models.PeriodRecord, mask models.CarryMask) {
	for _, f := range carryFields {
		if f.mask&mask != 0 && rec.Carried.Has(f.mask) {
			f.set(rec, "")
			rec.Carried &^= f.mask
		}
	}
}
