package evenotification

import (
	"context"
	"fmt"
	"time"

	"github.com/antihax/goesi/notification"
	"github.com/goccy/go-yaml"

	"github.com/ErikKalkoken/structurewatch/internal/app"
)

const (
	billTypeLease             = 2
	billTypeAlliance          = 5
	billTypeInfrastructureHub = 7
)

func billTypeName(id int32) string {
	switch id {
	case billTypeLease:
		return "lease"
	case billTypeAlliance:
		return "alliance maintenance"
	case billTypeInfrastructureHub:
		return "infrastructure hub upkeep"
	}
	return "?"
}

type billOutOfMoneyMsg struct {
	baseRenderer
}

func (n billOutOfMoneyMsg) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.CorpAllBillMsgV2
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf("Insufficient funds for %s bill", billTypeName(data.BillTypeID)),
		body: fmt.Sprintf(
			"The selected corporation wallet division for automatic payments "+
				"does not have enough current funds available to pay the %s bill, "+
				"due to be paid by %s. "+
				"Transfer additional funds to the selected wallet "+
				"division in order to meet your pending automatic bills.",
			billTypeName(data.BillTypeID),
			fromLDAPTime(data.DueDate).Format(app.DateTimeFormat),
		),
	}, nil
}

type infrastructureHubBillAboutToExpire struct {
	baseRenderer
}

func (n infrastructureHubBillAboutToExpire) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.InfrastructureHubBillAboutToExpire
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: "IHub Bill About to Expire",
		body: fmt.Sprintf("Maintenance bill for Infrastructure Hub in %s expires at %s, "+
			"if not paid in time this Infrastructure Hub will self-destruct.",
			makeSolarSystemLink(solarSystem),
			fromLDAPTime(data.DueDate).Format(app.DateTimeFormat),
		),
	}, nil
}

type iHubDestroyedByBillFailure struct {
	baseRenderer
}

func (n iHubDestroyedByBillFailure) render(ctx context.Context, text string, timestamp time.Time) (renderResult, error) {
	var data notification.IHubDestroyedByBillFailure
	if err := yaml.Unmarshal([]byte(text), &data); err != nil {
		return renderResult{}, err
	}
	solarSystem, err := n.eus.GetOrCreateSolarSystemESI(ctx, data.SolarSystemID)
	if err != nil {
		return renderResult{}, err
	}
	structureType, err := n.eus.GetOrCreateTypeESI(ctx, int32(data.StructureTypeID))
	if err != nil {
		return renderResult{}, err
	}
	return renderResult{
		title: fmt.Sprintf(
			"%s has self-destructed due to unpaid maintenance bills",
			structureType.Name,
		),
		body: fmt.Sprintf("%s in %s has self-destructed, as the standard maintenance bills where not paid.",
			structureType.Name,
			makeSolarSystemLink(solarSystem),
		),
		thumbnail: makeTypeIconURL(structureType.ID),
	}, nil
}
