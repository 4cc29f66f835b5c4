package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// The export step upstream writes three artifacts:
//
//   descriptions.json  map garment id -> attribute record
//   catalog_index.json map garment id -> {"embedding_index": N}
//   embeddings.f32     flat little-endian float32 table, one row per index
//
// LoadArtifacts cross-references the three. A garment with no index entry,
// an out-of-range row, or a short final row keeps its attributes and simply
// loses the embedding; the load never fails because of one bad row.

// descriptionRecord mirrors one entry of descriptions.json.
type descriptionRecord struct {
	Category       string `json:"category"`
	Subcategory    string `json:"subcategory"`
	ColorPrimary   string `json:"color_primary"`
	ColorSecondary string `json:"color_secondary"`
	Pattern        string `json:"pattern"`
	Material       string `json:"material"`
	SleeveLength   string `json:"sleeve_length"`
	Length         string `json:"length"`
	StyleAesthetic string `json:"style_aesthetic"`
	FitSilhouette  string `json:"fit_silhouette"`
	Description    string `json:"complete_description"`
}

// indexRecord mirrors one entry of catalog_index.json.
type indexRecord struct {
	EmbeddingIndex int `json:"embedding_index"`
}

// LoadResult carries the loaded garments plus load diagnostics.
type LoadResult struct {
	Garments []Garment
	// MissingEmbeddings counts garments that loaded attribute-only.
	MissingEmbeddings int
	// OrphanEmbeddings counts index rows with no attribute record.
	OrphanEmbeddings int
}

// LoadArtifacts reads the three export artifacts from disk. dim is the
// expected row width; pass 0 for the default.
func LoadArtifacts(descriptionsPath, indexPath, embeddingsPath string, dim int) (*LoadResult, error) {
	if dim <= 0 {
		dim = EmbeddingDim
	}

	var descriptions map[string]descriptionRecord
	if err := readJSON(descriptionsPath, &descriptions); err != nil {
		return nil, fmt.Errorf("loading descriptions: %w", err)
	}

	var index map[string]indexRecord
	if err := readJSON(indexPath, &index); err != nil {
		return nil, fmt.Errorf("loading catalog index: %w", err)
	}

	raw, err := os.ReadFile(embeddingsPath)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	table, err := DecodeEmbedding(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding embedding table: %w", err)
	}
	rows := len(table) / dim

	res := &LoadResult{Garments: make([]Garment, 0, len(descriptions))}

	for id := range index {
		if _, ok := descriptions[id]; !ok {
			res.OrphanEmbeddings++
		}
	}
	if res.OrphanEmbeddings > 0 {
		slog.Warn("catalog index references unknown garments", "count", res.OrphanEmbeddings)
	}

	for id, d := range descriptions {
		g := Garment{
			ID:             id,
			Category:       ParseCategory(d.Category),
			Subcategory:    d.Subcategory,
			ColorPrimary:   d.ColorPrimary,
			ColorSecondary: d.ColorSecondary,
			Pattern:        d.Pattern,
			Material:       d.Material,
			SleeveLength:   d.SleeveLength,
			Length:         d.Length,
			StyleAesthetic: d.StyleAesthetic,
			FitSilhouette:  d.FitSilhouette,
			Description:    d.Description,
		}

		ix, ok := index[id]
		switch {
		case !ok:
			res.MissingEmbeddings++
		case ix.EmbeddingIndex < 0 || ix.EmbeddingIndex >= rows:
			slog.Warn("embedding index out of range, keeping attributes only",
				"id", id, "index", ix.EmbeddingIndex, "rows", rows)
			res.MissingEmbeddings++
		default:
			row := table[ix.EmbeddingIndex*dim : (ix.EmbeddingIndex+1)*dim]
			g.Embedding = make([]float32, dim)
			copy(g.Embedding, row)
		}

		res.Garments = append(res.Garments, g)
	}

	slog.Info("catalog artifacts loaded",
		"garments", len(res.Garments),
		"missing_embeddings", res.MissingEmbeddings,
		"embedding_rows", rows,
	)
	return res, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
