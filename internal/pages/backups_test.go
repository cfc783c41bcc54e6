package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backupRows(fake *fakeActions, rows ...[3]string) {
	fake.counts[TableRows] = len(rows)
	for i, r := range rows {
		for col, v := range r {
			fake.show(backupCell(i, col))
			fake.texts[backupCell(i, col)] = v
		}
	}
}

func TestVerifyLatestFirst(t *testing.T) {
	tests := []struct {
		name string
		rows [][3]string
		want bool
	}{
		{"no rows", nil, true},
		{"single row", [][3]string{{"a.json", "Invalid Date", "1 KB"}}, true},
		{"latest first", [][3]string{
			{"b.json", "2024-03-09 14:05:07", "1 KB"},
			{"a.json", "2024-03-08 09:00:00", "1 KB"},
		}, true},
		{"equal", [][3]string{
			{"b.json", "3/9/2024, 2:05:07 PM", "1 KB"},
			{"a.json", "3/9/2024, 2:05:07 PM", "1 KB"},
		}, true},
		{"oldest first", [][3]string{
			{"a.json", "2024-03-08 09:00:00", "1 KB"},
			{"b.json", "2024-03-09 14:05:07", "1 KB"},
		}, false},
		{"invalid", [][3]string{
			{"b.json", "Invalid Date", "1 KB"},
			{"a.json", "2024-03-08 09:00:00", "1 KB"},
		}, false},
		{"unreadable", [][3]string{
			{"b.json", "yesterday", "1 KB"},
			{"a.json", "2024-03-08 09:00:00", "1 KB"},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFake()
			backupRows(fake, tt.rows...)
			ok, err := NewBackups(fake, testConfig(), nil).VerifyLatestFirst()
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestVerifyHeaders(t *testing.T) {
	fake := newFake()
	fake.setTexts(TableHeader, "Filename", "Created Date", "Actions")
	got := NewBackups(fake, testConfig(), nil).VerifyHeaders()
	assert.Equal(t, map[string]bool{"filename": true, "date": true, "size": false}, got)
}

func TestViewFirstAndFilename(t *testing.T) {
	fake := newFake()
	p := NewBackups(fake, testConfig(), nil)

	ok, err := p.ViewFirst()
	require.NoError(t, err)
	assert.False(t, ok)

	backupRows(fake, [3]string{"backup_20240309_140507.json", "2024-03-09 14:05:07", "2 KB"})
	fake.show(rowsX.Nth(0).Within(viewInRow), Dialog)
	ok, err = p.ViewFirst()
	require.NoError(t, err)
	assert.True(t, ok)

	name, err := p.FirstFilename()
	require.NoError(t, err)
	assert.Equal(t, "backup_20240309_140507.json", name)
	assert.Equal(t, "(//tbody/tr)[1]/td[1]", backupCell(0, 0).Value)
}

func TestBackupsRefresh(t *testing.T) {
	fake := newFake()
	p := NewBackups(fake, testConfig(), nil)
	require.NoError(t, p.Refresh())
	assert.Equal(t, 1, fake.refresh)

	fake.show(BackupsRefresh)
	require.NoError(t, p.Refresh())
	assert.Equal(t, 1, fake.refresh)
	assert.Len(t, fake.clicks, 1)
}
