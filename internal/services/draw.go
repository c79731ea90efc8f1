package services

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"golang.org/x/crypto/chacha20"

	"savingscircle/internal/domain"
)

// DrawSeedSize is the length in bytes of a draw seed (a ChaCha20 key).
const DrawSeedSize = chacha20.KeySize

// DrawEngine computes the position permutation for a group.
type DrawEngine struct {
	seeds io.Reader
	now   func() time.Time
}

// NewDrawEngine returns an engine reading seeds from seeds, or crypto/rand when nil.
func NewDrawEngine(seeds io.Reader) *DrawEngine {
	if seeds == nil {
		seeds = rand.Reader
	}
	return &DrawEngine{seeds: seeds, now: time.Now}
}

// Draw assigns positions 1..Duration to the group's memberships. It does not
// mutate its arguments; the caller persists the result.
func (e *DrawEngine) Draw(g *domain.Group, memberships []*domain.Membership) (*domain.DrawResult, error) {
	if len(memberships) != g.Duration {
		return nil, fmt.Errorf("%w: group %s has %d of %d members", domain.ErrMembershipCountMismatch, g.ID, len(memberships), g.Duration)
	}
	seed := make([]byte, DrawSeedSize)
	if _, err := io.ReadFull(e.seeds, seed); err != nil {
		return nil, fmt.Errorf("read draw seed: %w", err)
	}
	seq, err := ShuffleWithSeed(seed, memberships)
	if err != nil {
		return nil, err
	}
	return &domain.DrawResult{
		GroupID:    g.ID,
		Generation: domain.DrawGeneration,
		Seed:       hex.EncodeToString(seed),
		Sequence:   seq,
		DrawnAt:    e.now(),
	}, nil
}

// ShuffleWithSeed runs a Fisher-Yates shuffle over the memberships (ordered by
// member id first) using a ChaCha20 keystream keyed by seed. The same seed and
// membership set always give the same sequence, ordered by position.
func ShuffleWithSeed(seed []byte, memberships []*domain.Membership) ([]domain.RevealEntry, error) {
	stream, err := newStreamRand(seed)
	if err != nil {
		return nil, err
	}
	ordered := make([]*domain.Membership, len(memberships))
	copy(ordered, memberships)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].MemberID < ordered[j].MemberID })

	for i := len(ordered) - 1; i > 0; i-- {
		j := stream.intn(i + 1)
		ordered[i], ordered[j] = ordered[j], ordered[i]
	}

	seq := make([]domain.RevealEntry, len(ordered))
	for i, m := range ordered {
		seq[i] = domain.RevealEntry{Position: i + 1, MemberID: m.MemberID, DisplayName: m.DisplayName}
	}
	return seq, nil
}

type streamRand struct {
	cipher *chacha20.Cipher
	buf    [4]byte
}

func newStreamRand(seed []byte) (*streamRand, error) {
	if len(seed) != DrawSeedSize {
		return nil, fmt.Errorf("draw seed must be %d bytes, got %d", DrawSeedSize, len(seed))
	}
	c, err := chacha20.NewUnauthenticatedCipher(seed, make([]byte, chacha20.NonceSize))
	if err != nil {
		return nil, fmt.Errorf("init draw stream: %w", err)
	}
	return &streamRand{cipher: c}, nil
}

func (r *streamRand) uint32() uint32 {
	r.buf = [4]byte{}
	r.cipher.XORKeyStream(r.buf[:], r.buf[:])
	return binary.LittleEndian.Uint32(r.buf[:])
}

// intn returns a uniform value in [0, n). Values above the largest multiple of n are rejected.
func (r *streamRand) intn(n int) int {
	bound := uint32(n)
	limit := math.MaxUint32 - math.MaxUint32%bound
	for {
		if v := r.uint32(); v < limit {
			return int(v % bound)
		}
	}
}
