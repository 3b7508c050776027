package xos

import (
	"strconv"
	"sync"

	"github.com/OneOfOne/xxhash"
	"github.com/teris-io/shortid"
)

// alphabet for generated IDs, same shape as the teacher's uuidABC: the
// 64 symbols shortid requires.
const idABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

const LenSessionID = 9 // per shortid's own length guarantee

var (
	initOnce sync.Once
	sid      *shortid.Shortid
	tie      uint32
	tieMu    sync.Mutex
)

func initSID() {
	initOnce.Do(func() {
		var err error
		sid, err = shortid.New(1, idABC, xxhash.ChecksumString64("delegates-session"))
		if err != nil {
			sid = shortid.MustNew(1, idABC, 0)
		}
	})
}

// GenSessionID returns a short, unique, log-friendly identifier, in the
// same generate-and-nudge idiom as the teacher's GenUUID: shortid's
// output is globally unique but may start on a non-letter or end on a
// separator character, so a "tie" letter is prepended in the first case
// and appended in the second.
func GenSessionID() string {
	initSID()
	id := sid.MustGenerate()
	var head, tail string
	if !isAlpha(id[0]) {
		head = string(rune('A' + nextTie()%26))
	}
	if c := id[len(id)-1]; c == '-' || c == '_' {
		tail = string(rune('a' + nextTie()%26))
	}
	return head + id + tail
}

func nextTie() int {
	tieMu.Lock()
	defer tieMu.Unlock()
	tie++
	return int(tie)
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// HashSessionKey folds an arbitrary session key (e.g. "node-id:trname")
// down to a stable base-36 string, the way the teacher's HashK8sProxyID
// folds a node name into a short proxy ID.
func HashSessionKey(key string) string {
	digest := xxhash.ChecksumString64(key)
	return strconv.FormatUint(digest, 36)
}
