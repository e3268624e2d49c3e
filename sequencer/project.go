package sequencer

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const saveTimeLayout = "2006-01-02_15-04-05"

// SaveInfo represents a saved document (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Format    Format
	Timestamp time.Time
}

// ProjectStore keeps timestamped saves in one folder per project
type ProjectStore struct {
	Dir    string
	Format Format

	now func() time.Time
}

// NewProjectStore creates a store rooted at dir
func NewProjectStore(dir string, f Format) *ProjectStore {
	return &ProjectStore{Dir: dir, Format: f, now: time.Now}
}

// ProjectDir returns the path to a specific project
func (p *ProjectStore) ProjectDir(projectName string) string {
	return filepath.Join(p.Dir, sanitizeFilename(projectName))
}

// projectDir is ProjectDir for names that must resolve to a folder
// directly under the store root.
func (p *ProjectStore) projectDir(projectName string) (string, error) {
	name := sanitizeFilename(projectName)
	if name == "" || name == "." || name == ".." {
		return "", errors.Errorf("invalid project name %q", projectName)
	}
	return filepath.Join(p.Dir, name), nil
}

// savePath joins a save filename onto its project folder
func (p *ProjectStore) savePath(projectName, filename string) (string, error) {
	dir, err := p.projectDir(projectName)
	if err != nil {
		return "", err
	}
	if filename == "" || filename == "." || filename == ".." || filepath.Base(filename) != filename {
		return "", errors.Errorf("invalid save filename %q", filename)
	}
	return filepath.Join(dir, filename), nil
}

// ListProjects returns all project folder names
func (p *ProjectStore) ListProjects() ([]string, error) {
	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, errors.Wrap(err, "list projects")
	}

	var projects []string
	for _, entry := range entries {
		if entry.IsDir() {
			projects = append(projects, entry.Name())
		}
	}

	sort.Strings(projects)
	return projects, nil
}

// ListSaves returns timestamped saves for a project, newest first
func (p *ProjectStore) ListSaves(projectName string) ([]SaveInfo, error) {
	dir, err := p.projectDir(projectName)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, errors.Wrapf(err, "list saves of %s", projectName)
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if info, ok := parseSaveName(entry.Name()); ok {
			saves = append(saves, info)
		}
	}

	// Newest first; same-second saves fall back to name order
	sort.Slice(saves, func(i, j int) bool {
		if saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Filename > saves[j].Filename
		}
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})

	return saves, nil
}

// parseSaveName accepts 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_name.yaml
func parseSaveName(filename string) (SaveInfo, bool) {
	ext := filepath.Ext(filename)
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return SaveInfo{}, false
	}
	base := strings.TrimSuffix(filename, ext)
	if len(base) < len(saveTimeLayout) {
		return SaveInfo{}, false
	}
	ts, err := time.Parse(saveTimeLayout, base[:len(saveTimeLayout)])
	if err != nil {
		return SaveInfo{}, false
	}
	name := ""
	if rest := base[len(saveTimeLayout):]; len(rest) > 1 && rest[0] == '_' {
		name = rest[1:]
	}
	return SaveInfo{Filename: filename, Name: name, Format: ParseFormat(ext), Timestamp: ts}, true
}

// Save writes s as a new timestamped save and returns its filename
func (p *ProjectStore) Save(projectName, saveName string, s *State) (string, error) {
	if projectName == "" {
		projectName = "untitled"
	}
	dir, err := p.projectDir(projectName)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "create project %s", projectName)
	}

	data, err := Encode(s, p.Format)
	if err != nil {
		return "", err
	}

	filename := p.now().Format(saveTimeLayout)
	if saveName != "" {
		filename += "_" + sanitizeFilename(saveName)
	}
	filename += p.Format.Ext()
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", errors.Wrapf(err, "write %s", filename)
	}
	return filename, nil
}

// ReadDocument parses a save (or the most recent if filename is empty)
// without applying it to any state.
func (p *ProjectStore) ReadDocument(projectName, filename string) (*Document, string, error) {
	if filename == "" {
		saves, err := p.ListSaves(projectName)
		if err != nil {
			return nil, "", err
		}
		if len(saves) == 0 {
			return nil, "", errors.Errorf("no saves found in project %s", projectName)
		}
		filename = saves[0].Filename
	}

	path, err := p.savePath(projectName, filename)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read %s/%s", projectName, filename)
	}
	doc, _, err := ParseDocument(data)
	if err != nil {
		return nil, "", errors.Wrapf(err, "decode %s/%s", projectName, filename)
	}
	return doc, filename, nil
}

// Load decodes a save onto s (or the most recent if filename is empty)
func (p *ProjectStore) Load(projectName, filename string, s *State) (string, error) {
	doc, filename, err := p.ReadDocument(projectName, filename)
	if err != nil {
		return "", err
	}
	Apply(doc, s)
	return filename, nil
}

// DeleteSave deletes a specific save file
func (p *ProjectStore) DeleteSave(projectName, filename string) error {
	path, err := p.savePath(projectName, filename)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.Remove(path), "delete %s/%s", projectName, filename)
}

// RenameSave changes the name part of a save, keeping its timestamp
func (p *ProjectStore) RenameSave(projectName, oldFilename, newName string) (string, error) {
	info, ok := parseSaveName(oldFilename)
	if !ok {
		return "", errors.Errorf("invalid save filename %q", oldFilename)
	}
	oldPath, err := p.savePath(projectName, oldFilename)
	if err != nil {
		return "", err
	}

	newFilename := info.Timestamp.Format(saveTimeLayout)
	if newName != "" {
		newFilename += "_" + sanitizeFilename(newName)
	}
	newFilename += filepath.Ext(oldFilename)

	if err := os.Rename(oldPath, filepath.Join(filepath.Dir(oldPath), newFilename)); err != nil {
		return "", errors.Wrapf(err, "rename %s", oldFilename)
	}
	return newFilename, nil
}

// CreateProject creates an empty project folder
func (p *ProjectStore) CreateProject(name string) error {
	dir, err := p.projectDir(name)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.MkdirAll(dir, 0755), "create project %s", name)
}

// RenameProject renames a project folder
func (p *ProjectStore) RenameProject(oldName, newName string) error {
	oldDir, err := p.projectDir(oldName)
	if err != nil {
		return err
	}
	newDir, err := p.projectDir(newName)
	if err != nil {
		return err
	}
	if _, err := os.Stat(newDir); err == nil {
		return errors.Errorf("project %s already exists", newName)
	}
	return errors.Wrapf(os.Rename(oldDir, newDir), "rename project %s", oldName)
}

// DeleteProject deletes an entire project folder
func (p *ProjectStore) DeleteProject(name string) error {
	dir, err := p.projectDir(name)
	if err != nil {
		return err
	}
	return errors.Wrapf(os.RemoveAll(dir), "delete project %s", name)
}

// sanitizeFilename removes/replaces characters that are problematic in filenames
func sanitizeFilename(name string) string {
	return strings.NewReplacer(
		" ", "-", "/", "-", "\\", "-", ":", "-",
		"*", "", "?", "", "\"", "", "<", "", ">", "", "|", "",
	).Replace(name)
}
