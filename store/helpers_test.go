package store

import (
	"github.com/tsawler/timetable/model"
	"github.com/tsawler/timetable/tables"
)

func sampleResult() tables.Result {
	west := model.NewScheduleTable("weekday", "westbound", []string{"Lindenwold", "Ashland", "Woodcrest"})
	west.Rows = [][]string{
		{"5:00A", "", "5:06A"},
		{"11:50P", "11:52P", "11:55P"},
	}
	east := model.NewScheduleTable("weekday", "eastbound", []string{"15/16th & Locust", "12/13th & Locust", "9/10th & Locust"})
	east.Rows = [][]string{{"6:00A", "6:01A", "6:02A"}}

	return tables.Result{west.Key: west, east.Key: east}
}

func specialResult() tables.Result {
	west := model.NewScheduleTable("schedule", "westbound", []string{"Lindenwold", "Ashland"})
	west.Rows = [][]string{{"8:00A", "8:02A"}}
	sat := model.NewScheduleTable("saturday", "eastbound", []string{"15/16th & Locust", "12/13th & Locust"})
	sat.Rows = [][]string{{"9:00P", "9:01P"}}
	return tables.Result{west.Key: west, sat.Key: sat}
}
