package addrbook

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sahilm/fuzzy"
)

// Default is the production AddressResolver. Lookups are exact address
// matches filtered by chain; Search offers fuzzy matching by name for the
// CLI.
type Default struct {
	entries []Entry
	byAddr  map[common.Address][]Entry
}

// NewDefault loads the curated directory plus the user's labels from
// ~/.approvalscan/addresses.json. A missing or broken user file is reported
// on stderr and ignored.
func NewDefault() *Default {
	entries := append([]Entry{}, KnownSpenders...)
	entries = append(entries, KnownTokens...)
	user, err := loadUserEntries(defaultUserFile())
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "WARNING: reading address labels failed: %s. Ignored.\n", err)
	}
	return NewBook(append(user, entries...))
}

// NewBook builds a resolver over entries. Earlier entries win when two
// share an address and a chain.
func NewBook(entries []Entry) *Default {
	d := &Default{
		entries: entries,
		byAddr:  map[common.Address][]Entry{},
	}
	for _, e := range entries {
		d.byAddr[e.Address] = append(d.byAddr[e.Address], e)
	}
	return d
}

func (d *Default) Resolve(chainID uint64, addr common.Address) (Entry, bool) {
	for _, e := range d.byAddr[addr] {
		if e.OnChain(chainID) {
			return e, true
		}
	}
	return Entry{Address: addr}, false
}

func (d *Default) Entries() []Entry {
	return append([]Entry{}, d.entries...)
}

// FuzzySource adapts entries to sahilm/fuzzy. Each entry matches on its
// name joined with its address so either can be searched for.
type FuzzySource []Entry

func (s FuzzySource) Len() int {
	return len(s)
}

func (s FuzzySource) String(i int) string {
	return fmt.Sprintf("%s_%s", strings.ReplaceAll(s[i].Name, " ", "_"), strings.ToLower(s[i].Address.Hex()))
}

// Search returns up to limit entries best matching input, best first.
func (d *Default) Search(input string, limit int) []Entry {
	source := FuzzySource(d.entries)
	matches := fuzzy.FindFrom(strings.ReplaceAll(input, " ", "_"), source)
	result := []Entry{}
	for i := 0; i < len(matches) && (limit <= 0 || i < limit); i++ {
		result = append(result, source[matches[i].Index])
	}
	return result
}

func defaultUserFile() string {
	usr, err := user.Current()
	if err != nil {
		return ""
	}
	return filepath.Join(usr.HomeDir, ".approvalscan", "addresses.json")
}

// loadUserEntries reads a JSON object mapping address to name.
func loadUserEntries(file string) ([]Entry, error) {
	if file == "" {
		return nil, os.ErrNotExist
	}
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	labels := map[string]string{}
	if err := json.Unmarshal(content, &labels); err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	result := []Entry{}
	for addr, name := range labels {
		if !common.IsHexAddress(addr) {
			continue
		}
		result = append(result, Entry{Address: common.HexToAddress(addr), Name: name, Kind: KindUser})
	}
	return result, nil
}
