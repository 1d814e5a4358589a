package repository

// FailReads makes every read of the store's file return err.
func FailReads(store any, err error) {
	fail := func(string) ([]byte, error) { return nil, err }
	switch s := store.(type) {
	case *HistoryFile:
		s.file.readFile = fail
	case *StressLog:
		s.file.readFile = fail
	case *ScheduleBook:
		s.file.readFile = fail
	default:
		panic("FailReads: unsupported store")
	}
}
