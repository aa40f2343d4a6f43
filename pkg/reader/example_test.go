package reader_test

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"datedreader/pkg/checkpoint"
	"datedreader/pkg/logger"
	"datedreader/pkg/reader"
)

func ExampleSession_ReadDatedFiles() {
	dir, err := os.MkdirTemp("", "datedreader-example")
	if err != nil {
		fmt.Println(err)
		return
	}
	defer os.RemoveAll(dir)

	os.WriteFile(filepath.Join(dir, "app-2024-01-02.log"), []byte("booted\nready\n"), 0644)
	os.WriteFile(filepath.Join(dir, "app-2024-01-03.log"), []byte("request served\n"), 0644)

	store := checkpoint.NewFileStore(filepath.Join(dir, "checkpoints.json"))
	template := filepath.Join(dir, "app-{date}.log")
	from := checkpoint.MustParseDate("2024-01-02")
	now := func() time.Time { return time.Date(2024, 1, 3, 9, 0, 0, 0, time.UTC) }

	read := func() {
		err := reader.WithSession(store, func(s *reader.Session) error {
			lines, err := s.ReadDatedFiles(template, reader.ReadOptions{
				FromDate:   &from,
				DateFormat: "%Y-%m-%d",
			})
			if err != nil {
				return err
			}
			for lines.Next() {
				fmt.Println(lines.Text())
			}
			return lines.Err()
		},
			reader.WithClock(now),
			reader.WithLocation(time.UTC),
			reader.WithLogger(logger.NewNopLogger()),
		)
		if err != nil {
			fmt.Println("error:", err)
		}
	}

	read()
	fmt.Println("--")
	// Nothing new since the last run
	read()

	table, _ := store.Load()
	entry, _ := table.Get(template)
	fmt.Println(entry.Date, entry.Offset)

	// Output:
	// booted
	// ready
	// request served
	// --
	// 2024-01-03 15
}
