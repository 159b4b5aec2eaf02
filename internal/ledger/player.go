package ledger

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"universalcoins.gm/internal/props"
)

// nameIndexFile maps a display name to its index record. Names shorter than
// two characters or containing a dot are not indexable.
func (s *Store) nameIndexFile(name string) (string, bool) {
	key := strings.ToLower(name)
	if len(key) < 2 || strings.Contains(key, ".") || strings.ContainsAny(key, "/\\") {
		return "", false
	}
	return filepath.Join(s.players, "names", key[:2], key+".properties"), true
}

// UpdatePlayerName records the player's current display name and refreshes
// the reverse name index. The previous name's index entry, if any, is
// deleted; a failed delete is logged and the new entry still written.
func (s *Store) UpdatePlayerName(id uuid.UUID, name string) error {
	rec, err := s.loadPlayer(id)
	if err != nil {
		return err
	}
	previous := rec.Get("name", "")
	bumpVersion(rec)
	rec.Set("name", name)
	if err := props.Store(s.playerFile(id), rec, "Updated player name"); err != nil {
		return storeErr("update player name", err)
	}

	if previous != "" && !strings.EqualFold(previous, name) {
		if path, ok := s.nameIndexFile(previous); ok {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.warn("drop stale name index", err, zap.String("name", previous))
			}
		}
	}

	path, ok := s.nameIndexFile(name)
	if !ok {
		return nil
	}
	index := props.Record{}
	index.Set("player.id", id.String())
	index.Set("player.name", name)
	return storeErr("update player name", props.Store(path, index, "Name updated"))
}

// PlayerIDByName resolves a display name through the index. Unknown or
// unindexable names yield (nil, nil).
func (s *Store) PlayerIDByName(name string) (*uuid.UUID, error) {
	path, ok := s.nameIndexFile(name)
	if !ok {
		return nil, nil
	}
	rec, err := props.Load(path)
	if err != nil {
		return nil, storeErr("player by name", err)
	}
	if rec == nil {
		return nil, nil
	}
	id, err := uuid.Parse(rec.Get("player.id", ""))
	if err != nil {
		return nil, storeErr("player by name", err)
	}
	return &id, nil
}

// FindPlayersByName matches indexed names by case-folded prefix, returning
// id to current-name pairs. The prefix must itself be indexable.
func (s *Store) FindPlayersByName(prefix string) (map[uuid.UUID]string, error) {
	key := strings.ToLower(prefix)
	if _, ok := s.nameIndexFile(key); !ok {
		return nil, nil
	}
	dir := filepath.Join(s.players, "names", key[:2])
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("find players", err)
	}

	matches := map[uuid.UUID]string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), key) {
			continue
		}
		rec, err := props.Load(filepath.Join(dir, e.Name()))
		if err != nil || rec == nil {
			return nil, storeErrf("find players", "read index %s: %v", e.Name(), err)
		}
		id, err := uuid.Parse(rec.Get("player.id", ""))
		if err != nil {
			return nil, storeErr("find players", err)
		}
		matches[id] = rec.Get("player.name", "")
	}
	return matches, nil
}

// AllPlayerData loads every player record, scrubbing stale account links
// along the way.
func (s *Store) AllPlayerData() ([]PlayerData, error) {
	entries, err := os.ReadDir(s.players)
	if err != nil {
		return nil, storeErr("all players", err)
	}
	var out []PlayerData
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(name), ".properties") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(name, ".properties"))
		if err != nil {
			continue
		}
		data, err := s.PlayerData(id)
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
