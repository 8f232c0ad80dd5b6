package executor

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var (
	projectAdjectives = []string{"useful", "bright", "swift", "calm", "bold"}
	projectNouns      = []string{"fuze", "wave", "spark", "flow", "core"}
)

// randUint64 draws from crypto/rand. The ids built from it only need to be practically distinct.
func randUint64() uint64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint64(uuid.New().ID())
	}
	return binary.BigEndian.Uint64(buf[:])
}

func generateProjectID() string {
	n := randUint64()
	adj := projectAdjectives[n%uint64(len(projectAdjectives))]
	noun := projectNouns[(n>>8)%uint64(len(projectNouns))]
	return adj + "-" + noun + "-" + strings.ToLower(uuid.NewString())[:5]
}

func generateSessionID() string {
	n := int64(randUint64() & 0x7FFFFFFFFFFFFFFF)
	return "-" + strconv.FormatInt(n, 10)
}

func generateRequestID() string {
	return "agent-" + uuid.NewString()
}
