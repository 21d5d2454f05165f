package deadline

import "time"

var noDeadlineMarkers = []string{
	"не указан", "не указано", "не указана", "не определен", "не определено",
	"без срока", "нет срока",
	"unknown", "not specified", "no deadline", "none", "n/a",
}

var sameDayMarkers = []string{
	"сегодня", "до конца дня", "до конца рабочего дня", "в течение дня",
	"today", "end of day", "end of the day", "by eod", "eod",
}

var dayAfterTomorrowMarkers = []string{"послезавтра", "day after tomorrow"}

var tomorrowMarkers = []string{"завтра", "tomorrow"}

var thisWeekMarkers = []string{
	"на этой неделе", "до конца недели", "в конце недели", "к концу недели",
	"this week", "end of week", "end of the week", "by eow", "eow",
}

var nextWeekMarkers = []string{
	"на следующей неделе", "на след неделе", "на будущей неделе",
	"next week",
}

var englishWeekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// weekdayForms covers the nominative, accusative and genitive forms used in
// "в пятницу", "до пятницы", "к понедельнику".
var weekdayForms = map[string]time.Weekday{
	"понедельник": time.Monday, "понедельника": time.Monday, "понедельнику": time.Monday,
	"вторник": time.Tuesday, "вторника": time.Tuesday, "вторнику": time.Tuesday,
	"среда": time.Wednesday, "среду": time.Wednesday, "среды": time.Wednesday, "среде": time.Wednesday,
	"четверг": time.Thursday, "четверга": time.Thursday, "четвергу": time.Thursday,
	"пятница": time.Friday, "пятницу": time.Friday, "пятницы": time.Friday, "пятнице": time.Friday,
	"суббота": time.Saturday, "субботу": time.Saturday, "субботы": time.Saturday, "субботе": time.Saturday,
	"воскресенье": time.Sunday, "воскресенья": time.Sunday, "воскресенью": time.Sunday,
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
	"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
}

var numberWords = map[string]int{
	"один": 1, "одну": 1, "одна": 1, "одного": 1, "одни": 1,
	"два": 2, "две": 2, "двух": 2, "пару": 2, "пара": 2,
	"три": 3, "трех": 3,
	"четыре": 4, "четырех": 4,
	"пять": 5, "пяти": 5,
	"шесть": 6, "шести": 6,
	"семь": 7, "семи": 7,
	"восемь": 8, "восьми": 8,
	"девять": 9, "девяти": 9,
	"десять": 10, "десяти": 10,
	"a": 1, "an": 1, "one": 1, "two": 2, "couple": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

type unit int

const (
	unitMinute unit = iota
	unitHour
	unitDay
	unitWeek
)

// unitForms maps unit word stems to offset units. Lookup is by prefix so
// "дня", "дней", "днями" all resolve through "дн".
var unitForms = []struct {
	prefix string
	unit   unit
}{
	{"минут", unitMinute},
	{"мин", unitMinute},
	{"час", unitHour},
	{"дн", unitDay},
	{"день", unitDay},
	{"сутк", unitDay},
	{"суток", unitDay},
	{"недел", unitWeek},
	{"minute", unitMinute},
	{"min", unitMinute},
	{"hour", unitHour},
	{"hr", unitHour},
	{"day", unitDay},
	{"week", unitWeek},
}
