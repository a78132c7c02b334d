package ids

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joelkoen/picolimbo/pkg/protocol/version"
)

// Table resolves (version, state, direction, name) to the numeric packet
// id of that version's report, and back. It is built once at startup and
// shared read-only by every session.
type Table struct {
	// byName[version][state][direction][name] = id
	byName map[version.Protocol]map[string]map[string]map[string]int32
	// byID[version][state][direction][id] = name
	byID map[version.Protocol]map[string]map[string]map[int32]string
}

// reportEntry is a single packet in a report file.
type reportEntry struct {
	ProtocolID int32 `json:"protocol_id"`
}

// LoadTable reads packets/<wire id>.json for every supported version from
// the asset directory. A missing or malformed report is fatal: the server
// cannot frame packets for a version it has no report for.
func LoadTable(assetDir string) (*Table, error) {
	t := &Table{
		byName: make(map[version.Protocol]map[string]map[string]map[string]int32),
		byID:   make(map[version.Protocol]map[string]map[string]map[int32]string),
	}
	for _, v := range version.All() {
		path := filepath.Join(assetDir, "packets", fmt.Sprintf("%d.json", int32(v)))
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("packet report for %s: %w", v.Name(), err)
		}
		if err := t.loadReport(v, data); err != nil {
			return nil, fmt.Errorf("packet report for %s: %w", v.Name(), err)
		}
	}
	return t, nil
}

// loadReport parses one version's report: state -> direction -> name -> entry.
func (t *Table) loadReport(v version.Protocol, data []byte) error {
	var report map[string]map[string]map[string]reportEntry
	if err := json.Unmarshal(data, &report); err != nil {
		return err
	}

	byName := make(map[string]map[string]map[string]int32, len(report))
	byID := make(map[string]map[string]map[int32]string, len(report))
	for state, dirs := range report {
		byName[state] = make(map[string]map[string]int32, len(dirs))
		byID[state] = make(map[string]map[int32]string, len(dirs))
		for dir, packets := range dirs {
			byName[state][dir] = make(map[string]int32, len(packets))
			byID[state][dir] = make(map[int32]string, len(packets))
			for name, entry := range packets {
				byName[state][dir][name] = entry.ProtocolID
				byID[state][dir][entry.ProtocolID] = name
			}
		}
	}
	t.byName[v] = byName
	t.byID[v] = byID
	return nil
}

// PacketID resolves a canonical packet name to its numeric id.
func (t *Table) PacketID(v version.Protocol, s State, d Direction, name string) (int32, bool) {
	id, ok := t.byName[v][s.String()][d.String()][name]
	return id, ok
}

// PacketName resolves a numeric id back to its canonical name.
func (t *Table) PacketName(v version.Protocol, s State, d Direction, id int32) (string, bool) {
	name, ok := t.byID[v][s.String()][d.String()][id]
	return name, ok
}
