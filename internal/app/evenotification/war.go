package evenotification

import (
	"context"
	"fmt"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/dustin/go-humanize"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
	"github.com/ErikKalkoken/structurewatch/internal/app/evenotification/notification2"
	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type allyJoinedWarMsg struct {
	baseRenderer
}

func (n allyJoinedWarMsg) entityIDs(text string) (setInt32, error) {
	var data notification2.AllyJoinedWarMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.AggressorID, data.AllyID, data.DefenderID), nil
}

func (n allyJoinedWarMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.AllyJoinedWarMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.AggressorID, data.AllyID, data.DefenderID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"%s joins the war as ally of %s",
			entities[data.AllyID].Name,
			entities[data.DefenderID].Name,
		),
		body: fmt.Sprintf(
			"%s has joined the war between %s and %s as an ally of %s. "+
				"The ally can legally be attacked from **%s**.",
			makeEveEntityProfileLink(entities[data.AllyID]),
			makeEveEntityProfileLink(entities[data.AggressorID]),
			makeEveEntityProfileLink(entities[data.DefenderID]),
			makeEveEntityProfileLink(entities[data.DefenderID]),
			fromLDAPTime(data.StartTime).Format(app.DateTimeFormat),
		),
		thumbnail: makeEveEntityIconURL(entities[data.AllyID]),
	}, nil
}

type corpBecameWarEligible struct {
	baseRenderer
}

func (n corpBecameWarEligible) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	return renderResult{
		title: "Corporation is now war eligible",
		body: "Your corporation is now eligible for war declarations, " +
			"because it owns a structure or has dropped out of the protection of an alliance. " +
			"Other corporations and alliances can declare war on it.",
	}, nil
}

type corpNoLongerWarEligible struct {
	baseRenderer
}

func (n corpNoLongerWarEligible) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	return renderResult{
		title: "Corporation is no longer war eligible",
		body: "Your corporation is no longer eligible for war declarations. " +
			"Existing wars will be invalidated by CONCORD.",
	}, nil
}

type corpWarSurrenderMsg struct {
	baseRenderer
}

func (n corpWarSurrenderMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CorpWarSurrenderMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.AgainstID, data.DeclaredByID), nil
}

func (n corpWarSurrenderMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CorpWarSurrenderMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.AgainstID, data.DeclaredByID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: "One party has surrendered",
		body: fmt.Sprintf(
			"The war between %s and %s is coming to an end as one party has surrendered.\n\n"+
				"The war will be declared as being over after approximately 24 hours.",
			makeEveEntityProfileLink(entities[data.DeclaredByID]),
			makeEveEntityProfileLink(entities[data.AgainstID]),
		),
		thumbnail: makeEveEntityIconURL(entities[data.DeclaredByID]),
	}, nil
}

type warAdopted struct {
	baseRenderer
}

func (n warAdopted) entityIDs(text string) (setInt32, error) {
	var data notification.WarAdopted
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.AgainstID, data.DeclaredByID, data.AllianceID), nil
}

func (n warAdopted) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.WarAdopted
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.AgainstID, data.DeclaredByID, data.AllianceID))
	if err != nil {
		return renderResult{}, err
	}
	declaredBy := makeEveEntityProfileLink(entities[data.DeclaredByID])
	alliance := makeEveEntityProfileLink(entities[data.AllianceID])
	against := makeEveEntityProfileLink(entities[data.AgainstID])
	return renderResult{
		title: fmt.Sprintf(
			"War update: %s has left %s",
			entities[data.AgainstID].Name,
			entities[data.AllianceID].Name,
		),
		body: fmt.Sprintf(
			"There has been a development in the war between %s and %s.\n"+
				"%s is no longer a member of %s, "+
				"and therefore a new war between %s and %s has begun.",
			declaredBy,
			alliance,
			against,
			alliance,
			declaredBy,
			against,
		),
		thumbnail: makeEveEntityIconURL(entities[data.DeclaredByID]),
	}, nil
}

type warDeclared struct {
	baseRenderer
}

func (n warDeclared) entityIDs(text string) (setInt32, error) {
	var data notification.WarDeclared
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.AgainstID, data.DeclaredByID), nil
}

func (n warDeclared) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.WarDeclared
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.AgainstID, data.DeclaredByID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"%s Declares War Against %s",
			entities[data.DeclaredByID].Name,
			entities[data.AgainstID].Name,
		),
		body: fmt.Sprintf(
			"%s has declared war on %s with **%s** "+
				"as the designated war headquarters.\n\n"+
				"Within **%d** hours fighting can legally occur between those involved.",
			makeEveEntityProfileLink(entities[data.DeclaredByID]),
			makeEveEntityProfileLink(entities[data.AgainstID]),
			data.WarHQ,
			data.DelayHours,
		),
		thumbnail: makeEveEntityIconURL(entities[data.DeclaredByID]),
	}, nil
}

type warInherited struct {
	baseRenderer
}

func (n warInherited) entityIDs(text string) (setInt32, error) {
	var data notification.WarInherited
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.AgainstID, data.AllianceID, data.DeclaredByID, data.OpponentID, data.QuitterID), nil
}

func (n warInherited) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.WarInherited
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(
		data.AgainstID,
		data.AllianceID,
		data.DeclaredByID,
		data.OpponentID,
		data.QuitterID,
	))
	if err != nil {
		return renderResult{}, err
	}
	alliance := makeEveEntityProfileLink(entities[data.AllianceID])
	against := makeEveEntityProfileLink(entities[data.AgainstID])
	quitter := makeEveEntityProfileLink(entities[data.QuitterID])
	return renderResult{
		title: fmt.Sprintf(
			"%s inherits war against %s",
			entities[data.AllianceID].Name,
			entities[data.AgainstID].Name,
		),
		body: fmt.Sprintf(
			"%s has inherited the war between %s and %s, "+
				"because %s has joined the alliance during an ongoing war.",
			alliance,
			quitter,
			against,
			quitter,
		),
		thumbnail: makeEveEntityIconURL(entities[data.AllianceID]),
	}, nil
}

type warRetractedByConcord struct {
	baseRenderer
}

func (n warRetractedByConcord) entityIDs(text string) (setInt32, error) {
	var data notification.WarRetractedByConcord
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.AgainstID, data.DeclaredByID), nil
}

func (n warRetractedByConcord) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.WarRetractedByConcord
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.AgainstID, data.DeclaredByID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: "CONCORD retracts war",
		body: fmt.Sprintf(
			"The war between %s and %s "+
				"has been retracted by CONCORD. \n\n"+
				"After %s CONCORD will again respond to any hostilities "+
				"between those involved with full force.",
			makeEveEntityProfileLink(entities[data.DeclaredByID]),
			makeEveEntityProfileLink(entities[data.AgainstID]),
			fromLDAPTime(data.EndDate).Format(app.DateTimeFormat),
		),
		thumbnail: makeEveEntityIconURL(entities[data.DeclaredByID]),
	}, nil
}

type warSurrenderOfferMsg struct {
	baseRenderer
}

func (n warSurrenderOfferMsg) entityIDs(text string) (setInt32, error) {
	var data notification2.WarSurrenderOfferMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.OwnerID1, data.OwnerID2), nil
}

func (n warSurrenderOfferMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification2.WarSurrenderOfferMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.OwnerID1, data.OwnerID2))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s has offered a surrender", entities[data.OwnerID1].Name),
		body: fmt.Sprintf(
			"%s has offered to end the war with %s in the exchange for **%s** ISK. "+
				"If accepted, the war will end in 24 hours.",
			makeEveEntityProfileLink(entities[data.OwnerID1]),
			makeEveEntityProfileLink(entities[data.OwnerID2]),
			humanize.CommafWithDigits(data.IskValue, 2),
		),
		thumbnail: makeEveEntityIconURL(entities[data.OwnerID1]),
	}, nil
}
