package scene

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	builtinGroup = "Built-in Scenes"
	planetGroup  = "Planets"
	fileGroup    = "Scene Files"
)

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier, accepted by Resolve
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "file"
	FilePath    string `json:"filePath"`    // Path to the scene file (file type only)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete response for /api/scenes
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

// sceneMetadata is the subset of a scene file read for listing
type sceneMetadata struct {
	Name        string `yaml:"name" toml:"name" json:"name"`
	Description string `yaml:"description" toml:"description" json:"description"`
	Group       string `yaml:"group" toml:"group" json:"group"`
}

// FindScenesDir returns the first existing scenes directory, or ""
func FindScenesDir() string {
	for _, path := range []string{"scenes", "../scenes"} {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}
	return ""
}

// ListFileScenes scans dir for scene files. A missing directory yields an
// empty list; unreadable files are skipped with a warning.
func ListFileScenes(dir string) ([]SceneInfo, error) {
	scenes := []SceneInfo{}
	if dir == "" {
		return scenes, nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return scenes, nil
		}
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !IsSceneFile(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := ParseSceneMetadata(path)
		if err != nil {
			slog.Warn("skipping scene file", "path", path, "error", err)
			continue
		}
		scenes = append(scenes, info)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})
	return scenes, nil
}

// ParseSceneMetadata reads the name, description and group of a scene file.
// Missing values fall back to the file name and the default group.
func ParseSceneMetadata(path string) (SceneInfo, error) {
	filename := filepath.Base(path)
	nameWithoutExt := strings.TrimSuffix(filename, filepath.Ext(filename))

	info := SceneInfo{
		ID:          path,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       fileGroup,
		Type:        "file",
		FilePath:    path,
	}

	format, err := FormatFromPath(path)
	if err != nil {
		return info, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return info, err
	}

	var meta sceneMetadata
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &meta)
	case FormatTOML:
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(&meta)
	case FormatJSON:
		err = json.Unmarshal(data, &meta)
	}
	if err != nil {
		return info, fmt.Errorf("invalid %s scene: %w", format, err)
	}

	if meta.Name != "" {
		info.Name = meta.Name
		info.DisplayName = meta.Name
	}
	info.Description = meta.Description
	if meta.Group != "" {
		info.Group = meta.Group
	}
	return info, nil
}

// BuiltinScenes lists the built-in scenes followed by one planet per shader
func BuiltinScenes() []SceneInfo {
	var infos []SceneInfo
	for _, b := range builtinScenes {
		infos = append(infos, SceneInfo{
			ID:          b.id,
			Name:        b.name,
			DisplayName: b.name,
			Description: b.description,
			Group:       builtinGroup,
			Type:        "builtin",
		})
	}
	for _, id := range BuiltinIDs()[len(builtinScenes):] {
		name := titleCase(strings.TrimPrefix(id, planetPrefix))
		infos = append(infos, SceneInfo{
			ID:          id,
			Name:        name,
			DisplayName: name,
			Description: fmt.Sprintf("A single %s planet", strings.ToLower(name)),
			Group:       planetGroup,
			Type:        "builtin",
		})
	}
	return infos
}

// ListAllScenes returns both built-in and file scenes, grouped by category.
// Built-in scenes come first, then planets, then other groups alphabetically.
func ListAllScenes(scenesDir string) (ScenesResponse, error) {
	var response ScenesResponse

	fileScenes, err := ListFileScenes(scenesDir)
	if err != nil {
		return response, fmt.Errorf("failed to list scene files: %w", err)
	}

	allScenes := append(BuiltinScenes(), fileScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	var groupNames []string
	for groupName := range groupMap {
		if groupName != builtinGroup && groupName != planetGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)
	groupNames = append([]string{builtinGroup, planetGroup}, groupNames...)

	for _, groupName := range groupNames {
		if scenes, ok := groupMap[groupName]; ok {
			response.Groups = append(response.Groups, SceneGroup{
				Name:   groupName,
				Scenes: scenes,
			})
		}
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "binary-stars" -> "Binary Stars"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
