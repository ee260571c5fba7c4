package ingestion

import (
	"strings"
	"testing"
)

const csvHeader = "course_id,course_title,url,is_paid,price,num_subscribers,num_reviews,num_lectures,level,content_duration,published_timestamp,subject\n"

func TestParseCSV(t *testing.T) {
	data := csvHeader +
		"1070968,Ultimate Investment Banking Course,https://example.com/1,True,200,2147,23,51,All Levels,1.5,2017-01-18T20:58:58Z,Business Finance\n" +
		"1113822,Complete GST Course,https://example.com/2,True,75,2792,923,274,All Levels,39,2017-03-09T16:34:20Z,Business Finance\n"

	courses, report, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	if report.RowsRead != 2 || report.Imported != 2 {
		t.Errorf("report = %+v, want 2 rows read and imported", report)
	}
	if len(courses) != 2 {
		t.Fatalf("parsed %d courses, want 2", len(courses))
	}

	c := courses[0]
	if c.ID != 1070968 {
		t.Errorf("ID = %d, want 1070968", c.ID)
	}
	if c.Title != "Ultimate Investment Banking Course" {
		t.Errorf("Title = %q", c.Title)
	}
	if c.URL != "https://example.com/1" {
		t.Errorf("URL = %q", c.URL)
	}
	if !c.IsPaid || c.Price != 200 {
		t.Errorf("IsPaid/Price = %v/%v, want true/200", c.IsPaid, c.Price)
	}
	if c.Subscribers != 2147 || c.Reviews != 23 || c.Lectures != 51 {
		t.Errorf("counts = %d/%d/%d", c.Subscribers, c.Reviews, c.Lectures)
	}
	if c.ContentHours != 1.5 {
		t.Errorf("ContentHours = %v, want 1.5", c.ContentHours)
	}
	if c.PublishedYear != 2017 {
		t.Errorf("PublishedYear = %d, want 2017", c.PublishedYear)
	}
	if c.Subject != "Business Finance" {
		t.Errorf("Subject = %q", c.Subject)
	}
}

func TestParseCSVDropsRowsMissingTitleOrSubject(t *testing.T) {
	data := csvHeader +
		"1,,https://example.com/1,True,10,100,5,10,All Levels,2,2016-05-01T00:00:00Z,Business Finance\n" +
		"2,Some Course,https://example.com/2,True,10,100,5,10,All Levels,2,2016-05-01T00:00:00Z,\n" +
		"3,Kept Course,https://example.com/3,True,10,100,5,10,All Levels,2,2016-05-01T00:00:00Z,Graphic Design\n"

	courses, report, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	if report.MissingFields != 2 {
		t.Errorf("MissingFields = %d, want 2", report.MissingFields)
	}
	if len(courses) != 1 || courses[0].ID != 3 {
		t.Errorf("kept courses = %v, want only ID 3", courses)
	}
}

func TestParseCSVDeduplicatesKeepingFirst(t *testing.T) {
	data := csvHeader +
		"7,First Version,https://example.com/a,True,20,100,5,10,All Levels,2,2016-05-01T00:00:00Z,Web Development\n" +
		"7,Second Version,https://example.com/b,True,30,200,9,12,All Levels,3,2016-06-01T00:00:00Z,Web Development\n"

	courses, report, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	if report.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", report.Duplicates)
	}
	if len(courses) != 1 {
		t.Fatalf("kept %d courses, want 1", len(courses))
	}
	if courses[0].Title != "First Version" {
		t.Errorf("dedupe kept %q, want the first occurrence", courses[0].Title)
	}
}

func TestParseCSVBadRecords(t *testing.T) {
	data := csvHeader +
		"notanumber,Broken ID,https://example.com/a,True,20,100,5,10,All Levels,2,2016-05-01T00:00:00Z,Web Development\n" +
		"8,Broken Timestamp,https://example.com/b,True,20,100,5,10,All Levels,2,yesterday,Web Development\n" +
		"9,Fine,https://example.com/c,True,20,100,5,10,All Levels,2,2016-05-01T00:00:00Z,Web Development\n"

	courses, report, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	if report.BadRecords != 2 {
		t.Errorf("BadRecords = %d, want 2", report.BadRecords)
	}
	if len(courses) != 1 || courses[0].ID != 9 {
		t.Errorf("kept courses = %v, want only ID 9", courses)
	}
}

func TestParseCSVDefaultsMissingPrice(t *testing.T) {
	data := csvHeader +
		"10,Free Course,https://example.com/a,False,,5000,120,20,Beginner Level,4,2015-03-01T00:00:00Z,Musical Instruments\n"

	courses, _, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}
	if len(courses) != 1 {
		t.Fatalf("kept %d courses, want 1", len(courses))
	}
	if courses[0].Price != 0 || courses[0].IsPaid {
		t.Errorf("Price/IsPaid = %v/%v, want 0/false", courses[0].Price, courses[0].IsPaid)
	}
}

func TestParseCSVMissingRequiredColumn(t *testing.T) {
	data := "course_id,course_title\n1,Only Two Columns\n"
	_, _, err := ParseCSV(strings.NewReader(data))
	if err == nil {
		t.Fatal("ParseCSV should fail when required columns are missing")
	}
}
