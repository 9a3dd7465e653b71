package progression

// maxLevel caps level computation.
const maxLevel = 100

// XPToAdvance returns the XP needed to go from level to level+1.
// Quadratic growth: early levels come fast, later ones grind.
func XPToAdvance(level int) int64 {
	if level < 1 {
		level = 1
	}
	return int64(100*level + 25*(level-1)*level/2)
}

// XPForLevel returns the cumulative XP required to hold the given level.
func XPForLevel(level int) int64 {
	var total int64
	for l := 1; l < level; l++ {
		total += XPToAdvance(l)
	}
	return total
}

// LevelForXP returns the level a total XP amount corresponds to.
func LevelForXP(xp int64) int {
	level := 1
	var total int64
	for level < maxLevel {
		total += XPToAdvance(level)
		if xp < total {
			break
		}
		level++
	}
	return level
}
