package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

var nicknameAdjectives = []string{
	"amber", "bold", "brisk", "calm", "clever", "crimson", "eager",
	"gentle", "keen", "lively", "mellow", "nimble", "quiet", "rapid",
	"silver", "steady", "swift", "vivid", "wise", "witty",
}

var nicknameNouns = []string{
	"badger", "condor", "falcon", "fox", "heron", "ibex", "jay",
	"lynx", "marten", "osprey", "otter", "owl", "puffin", "raven",
	"seal", "stoat", "swallow", "tern", "vole", "wren",
}

// GenerateNickname produces a random adjective-noun-number handle. Uniqueness
// is not guaranteed here; callers retry against the store on collision.
func GenerateNickname() string {
	adj := nicknameAdjectives[randomIndex(len(nicknameAdjectives))]
	noun := nicknameNouns[randomIndex(len(nicknameNouns))]
	n := randomIndex(1000)
	return fmt.Sprintf("%s_%s_%d", adj, noun, n)
}

func randomIndex(n int) int {
	i, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("nickname generation: " + err.Error())
	}
	return int(i.Int64())
}
