package arena

import "github.com/joshuapare/arenakit/arena/buddy"

const (
	// NumPoolClasses is the number of fixed-size pool size classes.
	NumPoolClasses = 6

	// MaxPoolBlockSize is the largest request the small pools can serve;
	// anything bigger always goes to the buddy engines.
	MaxPoolBlockSize = 1024
)

// poolBlockSizes lists the block size of each pool class.
var poolBlockSizes = [NumPoolClasses]int{32, 64, 128, 256, 512, 1024}

// Config controls one arena.
type Config struct {
	// Engine configures both buddy engines.
	Engine buddy.Config

	// UsePools enables the six fixed-size pools in front of the engines.
	UsePools bool

	// PoolCounts holds the block count of each pool class, used when
	// UsePools is set.
	PoolCounts [NumPoolClasses]int
}

// DefaultConfig matches the shipped defaults: pools off, 2GB engines on
// 64-bit platforms. The pool counts size the 32B and 64B classes for
// small-object-heavy workloads.
var DefaultConfig = Config{
	Engine:   buddy.DefaultConfig,
	UsePools: false,
	PoolCounts: [NumPoolClasses]int{
		1_500_000, // 32B
		1_500_000, // 64B
		500_000,   // 128B
		250_000,   // 256B
		200_000,   // 512B
		200_000,   // 1024B
	},
}
