package util

const (
	DefaultLeaderboardLimit = 10
	MaxLeaderboardLimit     = 100
)
