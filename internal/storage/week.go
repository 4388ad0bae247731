package storage

import "time"

// inWeekWindow проверяет, попадает ли дата съемки в окно
// [сегодня-3 дня, сегодня+3 дня] при сравнении только по месяцу и дню.
// Год даты съемки игнорируется, поэтому фото любого прошлого года
// в этом календарном окне подходит
func inWeekWindow(today, taken time.Time) bool {
	from := monthDay(today.AddDate(0, 0, -3))
	to := monthDay(today.AddDate(0, 0, 3))
	day := monthDay(taken)

	// Если окно пересекает границу года (29.12 - 03.01), простое сравнение
	// строк "MM-DD" теряет значения за переходом. Разбиваем окно на два
	// поддиапазона: [сегодня-3 .. 31.12] и [01.01 .. сегодня+3]
	if rangeHitsNewYear(today) {
		return (day >= from && day <= "12-31") || (day >= "01-01" && day <= to)
	}

	return day >= from && day <= to
}

// rangeHitsNewYear проверяет, пересекает ли окно +-3 дня новый год
func rangeHitsNewYear(today time.Time) bool {
	return (today.Month() == time.December && today.Day() >= 29) ||
		(today.Month() == time.January && today.Day() <= 3)
}

func monthDay(t time.Time) string {
	return t.Format("01-02")
}
