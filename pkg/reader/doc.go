// Package reader reads a logical stream of lines spread across one file per
// day and resumes from the exact byte reached on the previous run.
//
// A file-name template names the daily files with a {date} placeholder,
// rendered with a strftime pattern ("%Y/%m/%d" unless told otherwise):
//
//	err := reader.WithSession(store, func(s *reader.Session) error {
//		lines, err := s.ReadDatedFiles("/var/log/app/{date}.log", reader.ReadOptions{
//			DateFormat: "%Y-%m-%d",
//		})
//		if err != nil {
//			return err
//		}
//		for lines.Next() {
//			fmt.Println(lines.Text())
//		}
//		return lines.Err()
//	})
//
// The session loads the checkpoint table once when it opens and saves it once
// when it closes. A read that runs through today records where it stopped; a
// read that is abandoned records nothing, so its lines are delivered again
// next time.
package reader
