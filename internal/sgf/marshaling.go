package sgf

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// manifStack is for two reasons ->
// * detect circular deps (not an error, but we need to know to avoid them)
// * avoid infinite recursion (allow up to MaxManifestRecursionDepth levels)
//
// Returns ErrManifestEmpty if and only if the first manifest in the stack is
// empty, otherwise it is not an error.
func recursiveUnmarshalResource(fsys fs.FS, name string, manifStack []string) (data topLevelBundle, err error) {
	fileData, loadErr := fs.ReadFile(fsys, name)
	if loadErr != nil {
		return topLevelBundle{}, fmt.Errorf("%q: reading file: %w", name, loadErr)
	}

	fileInfo, err := ScanFileInfo(name, fileData)
	if err != nil {
		return topLevelBundle{}, fmt.Errorf("%q: detecting file type: %w", name, err)
	}

	if strings.ToUpper(fileInfo.Format) != FormatName {
		return topLevelBundle{}, fmt.Errorf("%q: file does not have a 'format = \"%s\"' entry", name, FormatName)
	}

	fileType := strings.ToUpper(fileInfo.Type)
	switch fileType {
	case TypeData:
		unmarshaled, err := unmarshalBundleData(name, fileData)
		if err != nil {
			return unmarshaled, fmt.Errorf("data file %q: %w", name, err)
		}
		return unmarshaled, nil
	case TypeManifest:
		if len(manifStack) >= MaxManifestRecursionDepth {
			return topLevelBundle{}, fmt.Errorf("manifest file %q: %w", name, ErrManifestStackOverflow)
		}
		for i := range manifStack {
			if manifStack[i] == name {
				return topLevelBundle{}, fmt.Errorf("manifest file %q: %w", name, ErrManifestCircularRef)
			}
		}

		unmarshaledManif, err := unmarshalManifest(name, fileData)
		if err != nil {
			return topLevelBundle{}, fmt.Errorf("manifest file %q: %w", name, err)
		}
		manif := parseManifest(unmarshaledManif)

		// an empty manifest is only a problem for the very first manifest.
		if len(manif.Files) < 1 && len(manifStack) == 0 {
			return topLevelBundle{}, fmt.Errorf("manifest file %q: %w", name, ErrManifestEmpty)
		}

		manifSubStack := make([]string, len(manifStack)+1)
		copy(manifSubStack, manifStack)
		manifSubStack[len(manifSubStack)-1] = name

		manifDir := path.Dir(name)

		var unmarshaled topLevelBundle
		processedFiles := 0

		for _, manifRelPath := range manif.Files {
			includedName := path.Join(manifDir, manifRelPath)

			unmarshaledFileData, err := recursiveUnmarshalResource(fsys, includedName, manifSubStack)
			if err != nil {
				// circular references are skipped, not failed.
				if errors.Is(err, ErrManifestCircularRef) {
					continue
				}

				return topLevelBundle{}, fmt.Errorf("in file referred to by manifest file:\n    %q\n%w", name, err)
			}

			if err := unmarshaled.merge(unmarshaledFileData); err != nil {
				return topLevelBundle{}, fmt.Errorf("data file %q: %w", includedName, err)
			}
			processedFiles++
		}

		if len(manifStack) == 0 && processedFiles == 0 {
			return unmarshaled, fmt.Errorf("manifest file %q: %w", name, ErrManifestEmpty)
		}
		return unmarshaled, nil

	default:
		return topLevelBundle{}, fmt.Errorf("%q: file does not have 'type = ' entry set to either %q or %q", name, TypeData, TypeManifest)
	}
}

// unmarshalBundleData unmarshals bundle data from the given bytes. It does not
// parse or check the grammars it defines.
func unmarshalBundleData(name string, data []byte) (topLevelBundle, error) {
	var sgf topLevelBundle
	if err := unmarshal(name, data, &sgf); err != nil {
		return sgf, err
	}

	if strings.ToUpper(sgf.Format) != FormatName {
		return sgf, fmt.Errorf("in header: 'format' key must exist and be set to %q", FormatName)
	}
	if strings.ToUpper(sgf.Type) != TypeData {
		return sgf, fmt.Errorf("in header: 'type' must exist and be set to %q", TypeData)
	}

	return sgf, nil
}

// unmarshalManifest unmarshals manifest data from the given bytes. It does not
// check that the listed files exist.
func unmarshalManifest(name string, data []byte) (topLevelManifest, error) {
	var manif topLevelManifest
	if err := unmarshal(name, data, &manif); err != nil {
		return manif, err
	}

	if strings.ToUpper(manif.Format) != FormatName {
		return manif, fmt.Errorf("in header: 'format' key must exist and be set to %q", FormatName)
	}
	if strings.ToUpper(manif.Type) != TypeManifest {
		return manif, fmt.Errorf("in header: 'type' must exist and be set to %q", TypeManifest)
	}

	return manif, nil
}

func unmarshal(name string, data []byte, v interface{}) error {
	if isYAML(name) {
		return yaml.Unmarshal(data, v)
	}
	return toml.Unmarshal(data, v)
}
