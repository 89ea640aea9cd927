package livejournal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(i int) *int { return &i }

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"IMG0001.JPEG", "https://pics/1.jpg", "IMG0001.jpg"},
		{"vacation_pic", "https://x/files/abc.png", "vacation_pic.png"},
		{"PHOTO.JPG", "https://pics/a.jpg", "PHOTO.jpg"},
		{"my holiday.gif", "https://pics/a.gif", "my_holiday.gif"},
		{"scan.jpeg", "https://pics/a.jpeg", "scan.jpg"},
		{"noext", "https://pics/a.JPEG?size=big", "noext.jpg"},
		{"raw.TIFF", "https://pics/a.png", "raw.tiff.png"},
		{"mixed.Jpg", "https://pics/a.jpg", "mixed.Jpg.jpg"},
		{"no extension anywhere", "https://pics/blob", "no_extension_anywhere"},
		{"a/b.png", "https://pics/a.png", "a_b.png"},
		{"vacation_pic", "https://pics/a.webp", "vacation_pic.webp"},
		{"already.webp", "https://pics/a.webp", "already.webp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.name, tt.url))
		})
	}
}

func TestNormalizeNameIsIdempotent(t *testing.T) {
	inputs := []struct{ name, url string }{
		{"IMG0001.JPEG", "https://pics/1.jpg"},
		{"vacation_pic", "https://x/files/abc.PNG"},
		{"two words.JPG", "https://pics/a.jpg"},
		{"odd.Jpeg", "https://pics/a.JPEG"},
		{"nothing", "https://pics/none"},
		{"dir.v1/file", "https://pics/a.gif"},
		{"vacation_pic", "https://pics/a.webp"},
		{"scan.TIFF", "https://pics/a.BMP"},
	}

	for _, in := range inputs {
		once := NormalizeName(in.name, in.url)
		twice := NormalizeName(once, in.url)
		assert.Equal(t, once, twice, "input %q", in.name)
	}
}

func TestNormalizeRecordsExamples(t *testing.T) {
	records := NormalizeRecords([]RawRecord{
		{Index: intPtr(3), Name: "IMG0001.JPEG", URL: "https://pics/IMG0001.jpg"},
		{Index: intPtr(0), Name: "vacation_pic", URL: "https://x/files/abc.png"},
	})

	assert.Equal(t, []Record{
		{Filename: "3__IMG0001.jpg", URL: "https://pics/IMG0001.jpg"},
		{Filename: "0__vacation_pic.png", URL: "https://x/files/abc.png"},
	}, records)
}

func TestNormalizeRecordsDistinctNames(t *testing.T) {
	records := NormalizeRecords([]RawRecord{
		{Index: intPtr(0), Name: "same.jpg", URL: "https://pics/1.jpg"},
		{Index: intPtr(1), Name: "same.jpg", URL: "https://pics/2.jpg"},
		{Index: intPtr(2), Name: "same.JPG", URL: "https://pics/3.jpg"},
	})

	assertDistinct(t, records)
	assert.Equal(t, "0__same.jpg", records[0].Filename)
	assert.Equal(t, "2__same.jpg", records[2].Filename)
}

func TestNormalizeRecordsFallsBackToPosition(t *testing.T) {
	t.Run("duplicate indexes", func(t *testing.T) {
		records := NormalizeRecords([]RawRecord{
			{Index: intPtr(5), Name: "a.jpg", URL: "u1"},
			{Index: intPtr(5), Name: "a.jpg", URL: "u2"},
		})
		assertDistinct(t, records)
		assert.Equal(t, "0__a.jpg", records[0].Filename)
		assert.Equal(t, "1__a.jpg", records[1].Filename)
	})

	t.Run("missing index", func(t *testing.T) {
		records := NormalizeRecords([]RawRecord{
			{Index: intPtr(9), Name: "a.jpg", URL: "u1"},
			{Name: "b.jpg", URL: "u2"},
		})
		assert.Equal(t, "0__a.jpg", records[0].Filename)
		assert.Equal(t, "1__b.jpg", records[1].Filename)
	})
}

func TestStripIndex(t *testing.T) {
	assert.Equal(t, "IMG0001.jpg", StripIndex("3__IMG0001.jpg"))
	assert.Equal(t, "a__b.jpg", StripIndex("0__a__b.jpg"))
	assert.Equal(t, "plain.jpg", StripIndex("plain.jpg"))
}

func assertDistinct(t *testing.T, records []Record) {
	t.Helper()
	seen := make(map[string]bool)
	for _, r := range records {
		assert.False(t, seen[r.Filename], "duplicate filename %s", r.Filename)
		seen[r.Filename] = true
	}
}
