package configrepo

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// projectTreeFile is the on-disk shape of the project hierarchy file
// that lives at the checkout root, independent of the per-project
// resource-definition files under Dir.
type projectTreeFile struct {
	// Parent maps a project id to its immediate parent's id. A
	// project absent from this map is a root.
	Parent map[string]string `yaml:"parent"`
}

// PathTo satisfies registry.ProjectHierarchy, walking parent links
// from the checkout's project-tree file root-first, leaf-last, the
// order the registry needs to apply override semantics.
func (r *Repository) PathTo(projectID string) ([]string, error) {
	tree, err := r.loadTree()
	if err != nil {
		return nil, err
	}

	var reversed []string
	id := projectID
	visited := make(map[string]struct{})
	for {
		if _, seen := visited[id]; seen {
			return nil, fmt.Errorf("configrepo: cyclic project tree at %q", id)
		}
		visited[id] = struct{}{}
		reversed = append(reversed, id)

		parent, ok := tree.Parent[id]
		if !ok {
			break
		}
		id = parent
	}

	path := make([]string, len(reversed))
	for i, v := range reversed {
		path[len(reversed)-1-i] = v
	}
	return path, nil
}

func (r *Repository) loadTree() (*projectTreeFile, error) {
	path := filepath.Join(r.Path, "projects.yaml")
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &projectTreeFile{Parent: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}

	var tree projectTreeFile
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	if tree.Parent == nil {
		tree.Parent = map[string]string{}
	}
	return &tree, nil
}
