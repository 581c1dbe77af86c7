package zipfmt

import "time"

const dosEpochYear = 1980

// DOSTime packs a wall-clock time into the 16-bit MS-DOS time field:
// hour in bits 15-11, minute in bits 10-5 and seconds/2 in bits 4-0.
func DOSTime(hour, minute, second int) uint16 {
	return uint16(hour<<11 | minute<<5 | second/2) //nolint:gosec // fields are range checked by callers
}

// DOSDate packs a calendar date into the 16-bit MS-DOS date field:
// years since 1980 in bits 15-9, month in bits 8-5 and day in bits 4-0.
func DOSDate(year, month, day int) uint16 {
	return uint16((year-dosEpochYear)<<9 | month<<5 | day) //nolint:gosec // year is clamped by callers
}

// TimeToDOS converts t to packed MS-DOS time and date fields using t's own
// location. Times outside the representable range 1980-2107 are clamped.
func TimeToDOS(t time.Time) (dosTime, dosDate uint16) {
	switch {
	case t.Year() < dosEpochYear:
		t = time.Date(dosEpochYear, time.January, 1, 0, 0, 0, 0, t.Location())
	case t.Year() > dosEpochYear+127:
		t = time.Date(dosEpochYear+127, time.December, 31, 23, 59, 58, 0, t.Location())
	}
	return DOSTime(t.Hour(), t.Minute(), t.Second()), DOSDate(t.Year(), int(t.Month()), t.Day())
}

// DOSToTime decodes packed MS-DOS time and date fields in loc.
func DOSToTime(dosTime, dosDate uint16, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(
		int(dosDate>>9)+dosEpochYear,
		time.Month(dosDate>>5&0xf),
		int(dosDate&0x1f),
		int(dosTime>>11),
		int(dosTime>>5&0x3f),
		int(dosTime&0x1f)*2,
		0,
		loc,
	)
}
