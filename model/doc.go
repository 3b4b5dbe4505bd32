// Package model provides the intermediate representation shared by the
// timetable reader, the reconstruction core and the storage layers.
//
// # Pages and Fragments
//
// A [Page] carries its dimensions and the positioned [TextFragment] values
// (words) decoded from the PDF text layer:
//
//	page := model.NewPage(612, 792)
//	page.AddFragment(model.TextFragment{Text: "5:30A", BBox: model.NewBBox(101, 420, 22, 8)})
//
// All coordinates use one unit system per document with the origin at the
// top-left corner of the page: X grows to the right and Y grows downward, so
// a fragment's Y is the distance of its top edge from the top of the page.
//
// # Schedule Tables
//
// A [ScheduleTable] is the reconstructed output for one (section, direction)
// pair. Columns are labelled by station name; each cell is either a time in
// its printed form ("5:30A", "12:45P") or the empty string for a station
// that is closed for that entry. Tables render to CSV and Markdown:
//
//	csv, err := table.ToCSV()
//	md := table.ToMarkdown()
package model
