package evenotification

import (
	"context"
	"fmt"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/set"
)

type charAppAcceptMsg struct {
	baseRenderer
}

func (n charAppAcceptMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CharAppAcceptMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CharID, data.CorpID), nil
}

func (n charAppAcceptMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CharAppAcceptMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.CharID, data.CorpID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"%s joins %s",
			entities[data.CharID].Name,
			entities[data.CorpID].Name,
		),
		body: fmt.Sprintf(
			"%s is now a member of %s.",
			makeEveEntityProfileLink(entities[data.CharID]),
			makeEveEntityProfileLink(entities[data.CorpID]),
		),
		thumbnail: makeCharacterPortraitURL(data.CharID),
	}, nil
}

type corpAppNewMsg struct {
	baseRenderer
}

func (n corpAppNewMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CorpAppNewMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CharID, data.CorpID), nil
}

func (n corpAppNewMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CorpAppNewMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.CharID, data.CorpID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("New application from %s", entities[data.CharID].Name),
		body: fmt.Sprintf(
			"New application from %s to join %s:\n\n> %s",
			makeEveEntityProfileLink(entities[data.CharID]),
			makeEveEntityProfileLink(entities[data.CorpID]),
			data.ApplicationText,
		),
		thumbnail: makeCharacterPortraitURL(data.CharID),
	}, nil
}

type corpAppInvitedMsg struct {
	baseRenderer
}

func (n corpAppInvitedMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CorpAppInvitedMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CharID, data.CorpID, data.InvokingCharID), nil
}

func (n corpAppInvitedMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CorpAppInvitedMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.CharID, data.CorpID, data.InvokingCharID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s has been invited", entities[data.CharID].Name),
		body: fmt.Sprintf(
			"%s has been invited to join %s by %s:\n\n> %s",
			makeEveEntityProfileLink(entities[data.CharID]),
			makeEveEntityProfileLink(entities[data.CorpID]),
			makeEveEntityProfileLink(entities[data.InvokingCharID]),
			data.ApplicationText,
		),
		thumbnail: makeCharacterPortraitURL(data.CharID),
	}, nil
}

type corpAppRejectCustomMsg struct {
	baseRenderer
}

func (n corpAppRejectCustomMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CorpAppRejectCustomMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CharID, data.CorpID), nil
}

func (n corpAppRejectCustomMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CorpAppRejectCustomMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.CharID, data.CorpID))
	if err != nil {
		return renderResult{}, err
	}
	out := fmt.Sprintf(
		"%s has rejected application from %s:\n\n>%s",
		makeEveEntityProfileLink(entities[data.CorpID]),
		makeEveEntityProfileLink(entities[data.CharID]),
		data.ApplicationText,
	)
	if data.CustomMessage != "" {
		out += fmt.Sprintf("\n\nReply:\n\n>%s", data.CustomMessage)
	}
	return renderResult{
		title:     fmt.Sprintf("Application from %s rejected", entities[data.CharID].Name),
		body:      out,
		thumbnail: makeCharacterPortraitURL(data.CharID),
	}, nil
}

type charAppWithdrawMsg struct {
	baseRenderer
}

func (n charAppWithdrawMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CharAppWithdrawMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CharID, data.CorpID), nil
}

func (n charAppWithdrawMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CharAppWithdrawMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.CharID, data.CorpID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("%s withdrew application", entities[data.CharID].Name),
		body: fmt.Sprintf(
			"%s has withdrawn application to join %s:\n\n>%s",
			makeEveEntityProfileLink(entities[data.CharID]),
			makeEveEntityProfileLink(entities[data.CorpID]),
			data.ApplicationText,
		),
		thumbnail: makeCharacterPortraitURL(data.CharID),
	}, nil
}

type charLeftCorpMsg struct {
	baseRenderer
}

func (n charLeftCorpMsg) entityIDs(text string) (setInt32, error) {
	var data notification.CharLeftCorpMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return setInt32{}, err
	}
	return set.Of(data.CharID, data.CorpID), nil
}

func (n charLeftCorpMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CharLeftCorpMsg
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	entities, err := n.eus.ToEntities(ctx, set.Of(data.CharID, data.CorpID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"%s left %s",
			entities[data.CharID].Name,
			entities[data.CorpID].Name,
		),
		body: fmt.Sprintf(
			"%s is no longer a member of %s.",
			makeEveEntityProfileLink(entities[data.CharID]),
			makeEveEntityProfileLink(entities[data.CorpID]),
		),
		thumbnail: makeCharacterPortraitURL(data.CharID),
	}, nil
}
