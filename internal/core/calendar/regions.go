package calendar

// regionHolidays lists built-in holiday dates per region tag. US dates are
// the federal holidays as observed (weekend holidays shifted to the adjacent
// weekday). Tenants with other markets supply custom holiday lists via New.
var regionHolidays = map[string][]string{
	"US": {
		// 2023
		"2023-01-02", "2023-01-16", "2023-02-20", "2023-05-29",
		"2023-06-19", "2023-07-04", "2023-09-04", "2023-10-09",
		"2023-11-10", "2023-11-23", "2023-12-25",
		// 2024
		"2024-01-01", "2024-01-15", "2024-02-19", "2024-05-27",
		"2024-06-19", "2024-07-04", "2024-09-02", "2024-10-14",
		"2024-11-11", "2024-11-28", "2024-12-25",
		// 2025
		"2025-01-01", "2025-01-20", "2025-02-17", "2025-05-26",
		"2025-06-19", "2025-07-04", "2025-09-01", "2025-10-13",
		"2025-11-11", "2025-11-27", "2025-12-25",
		// 2026
		"2026-01-01", "2026-01-19", "2026-02-16", "2026-05-25",
		"2026-06-19", "2026-07-03", "2026-09-07", "2026-10-12",
		"2026-11-11", "2026-11-26", "2026-12-25",
	},
	"UK": {
		// 2024
		"2024-01-01", "2024-03-29", "2024-04-01", "2024-05-06",
		"2024-05-27", "2024-08-26", "2024-12-25", "2024-12-26",
		// 2025
		"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-05",
		"2025-05-26", "2025-08-25", "2025-12-25", "2025-12-26",
		// 2026
		"2026-01-01", "2026-04-03", "2026-04-06", "2026-05-04",
		"2026-05-25", "2026-08-31", "2026-12-25", "2026-12-28",
	},
	"TARGET": {
		// TARGET2 closing days are fixed-date; Good Friday / Easter Monday vary.
		"2024-01-01", "2024-03-29", "2024-04-01", "2024-05-01",
		"2024-12-25", "2024-12-26",
		"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-01",
		"2025-12-25", "2025-12-26",
		"2026-01-01", "2026-04-03", "2026-04-06", "2026-05-01",
		"2026-12-25", "2026-12-26",
	},
}
