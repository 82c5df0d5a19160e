package room

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// CodeAlphabet leaves out I, O, 0 and 1 so codes survive being read aloud.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func genRoomCode(n int) (string, error) {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		x, err := rand.Int(rand.Reader, big.NewInt(int64(len(CodeAlphabet))))
		if err != nil {
			return "", err
		}
		out[i] = CodeAlphabet[x.Int64()]
	}
	return string(out), nil
}

// NormalizeCode upper-cases and trims a code typed by a player.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
