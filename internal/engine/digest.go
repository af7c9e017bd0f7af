package engine

import (
	"github.com/roach88/memento/internal/canon"
	"github.com/roach88/memento/internal/model"
)

// LevelInputsDigest hashes the level number and the ordered videos of a
// level. The level id is not part of the digest; SaveResponses compares it
// separately.
func LevelInputsDigest(in model.LevelInputs) (string, error) {
	videos := make(canon.Array, len(in.Videos))
	for i, v := range in.Videos {
		videos[i] = canon.Object{
			"url":  canon.String(v.URL),
			"type": canon.String(string(v.Type)),
		}
	}
	return canon.Digest(canon.DomainLevelInputs, canon.Object{
		"level":  canon.Int(in.Level),
		"videos": videos,
	})
}
