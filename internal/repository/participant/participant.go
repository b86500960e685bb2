// Package participant is the out-of-band directory where clients publish
// their public keys and look up their peers'.
package participant

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cipherlink/internal/model"
)

type (
	Repo struct {
		collection *mongo.Collection
	}
)

func NewRepo(db *mongo.Database) *Repo {
	return &Repo{
		collection: db.Collection("participants"),
	}
}

// Get returns the participant with the given id, or nil if unknown.
func (r *Repo) Get(ctx context.Context, id string) (*model.Participant, error) {
	filter := bson.M{
		"_id": id,
	}

	var p model.Participant
	err := r.collection.FindOne(ctx, filter).Decode(&p)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &p, nil
}

// Put upserts a participant's public keys.
func (r *Repo) Put(ctx context.Context, p *model.Participant) error {
	filter := bson.M{
		"_id": p.ID,
	}
	update := bson.M{
		"$set": bson.M{
			"signing_public_key":   p.SigningPublicKey,
			"agreement_public_key": p.AgreementPublicKey,
		},
	}

	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}
