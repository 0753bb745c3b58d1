package parser

import (
	"strconv"
	"strings"
	"time"
)

// NormalizeTimestamp собирает момент времени из даты "D.M.Y" и времени "H:MM[:SS]".
// Двузначный год считается годом 2000-х. Если дата не разбирается, берется дата из now
// (время суток при этом все равно берется из clock). Нечисловые части времени дают 0.
// Результат строится в локальной зоне.
func NormalizeTimestamp(date, clock string, now time.Time) time.Time {
	year, month, day, ok := parseDate(date)
	if !ok {
		now = now.In(time.Local)
		year, month, day = now.Year(), int(now.Month()), now.Day()
	}

	var hour, minute, second int
	parts := strings.Split(clock, ":")
	hour = atoiOrZero(parts[0])
	if len(parts) > 1 {
		minute = atoiOrZero(parts[1])
	}
	if len(parts) > 2 {
		second = atoiOrZero(parts[2])
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.Local)
}

func parseDate(date string) (year, month, day int, ok bool) {
	parts := strings.Split(date, ".")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, 0, 0, false
		}
		nums[i] = n
	}
	day, month, year = nums[0], nums[1], nums[2]
	if year < 100 {
		year += 2000
	}
	return year, month, day, true
}

func atoiOrZero(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

// dayBucket: ключ календарного дня в формате YYYYMMDD, как в именах файлов WhatsApp.
func dayBucket(t time.Time) string {
	return t.Format("20060102")
}
