package constants

import (
	"os"
	"strconv"
	"time"
)

func GetExportDir() string {
	path := os.Getenv("EXPORT_PATH")
	if path != "" {
		return path
	}
	return "./out"
}

func GetListenAddr() string {
	port := os.Getenv("PORT")
	if port != "" {
		return ":" + port
	}
	return ":8080"
}

// GetSeed returns BACKINGBAND_SEED, or a time based seed when unset.
func GetSeed() int64 {
	if v := os.Getenv("BACKINGBAND_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return seed
		}
	}
	return time.Now().UnixNano()
}

func GetLookahead() int {
	if v := os.Getenv("LOOKAHEAD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return Lookahead
}

// Lookahead is the number of steps generated ahead of the transport.
const Lookahead = 64

// PPQ is the exported timeline resolution in ticks per quarter note.
const PPQ = 480

// NextChordHint is how far ahead the scheduler peeks for voice leading.
const NextChordHint = 4

const (
	KickNote  = 36
	SnareNote = 38
	HiHatNote = 42
	OpenNote  = 46
	CrashNote = 49

	// floor applied to exported velocities so ghost notes stay audible
	MinVelocity = 8
)

// General MIDI channels and programs of the exported tracks.
const (
	CompingChannel = 0
	BassChannel    = 1
	LeadChannel    = 2
	HarmonyChannel = 3
	DrumChannel    = 9

	CompingProgram = 4  // electric piano
	BassProgram    = 34 // picked bass
	LeadProgram    = 80 // square lead
	HarmonyProgram = 48 // string ensemble
)
