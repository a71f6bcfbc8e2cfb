package main

// RootFlags decouples cobra flag storage from config assembly for testing.
type RootFlags struct {
	ConfigPath    string
	Restart       bool
	Cwd           string
	MaxRestarts   int
	Bin           string
	LogLevel      string
	NoColor       bool
	ChildLogDir   string
	MetricsListen string
	HistoryDSN    string
}
