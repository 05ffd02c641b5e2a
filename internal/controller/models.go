package controller

import (
	"encoding/json"
	"fmt"

	"quotes/internal/models"
)

// New quote request

func ParseNewRequestReq(data []byte) (*models.NewRequest, error) {
	t := &models.NewRequest{}

	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, fmt.Errorf("malformed request body: %w", err)
	}

	if !models.ValidRequestType(t.RequestType) {
		return nil, fmt.Errorf("invalid request type supplied: %s, should be one of: %s, %s", string(t.RequestType), models.RequestLocal, models.RequestNational)
	}

	if err = checkLengthLimit(t.VehicleMake, "vehicleMake", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.VehicleModel, "vehicleModel", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.PartName, "partName", 200); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.PartCategory, "partCategory", 100); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.Postcode, "postcode", 16); err != nil {
		return nil, err
	}
	if err = checkLengthLimit(t.Description, "description", 2000); err != nil {
		return nil, err
	}

	return t, nil
}

// New offer

func ParseNewOfferReq(data []byte) (*models.NewOffer, error) {
	t := &models.NewOffer{}

	err := json.Unmarshal(data, t)
	if err != nil {
		return nil, fmt.Errorf("malformed request body: %w", err)
	}

	if !models.ValidPartCondition(t.Condition) {
		return nil, fmt.Errorf("invalid condition supplied: %s, should be one of: %s, %s, %s, %s", string(t.Condition),
			models.ConditionNew, models.ConditionUsed, models.ConditionRefurbished, models.ConditionReconditioned)
	}
	if err = checkLengthLimit(t.Notes, "notes", 1000); err != nil {
		return nil, err
	}

	return t, nil
}

// Service

func checkLengthLimit(str, fieldName string, limit int) error {
	if len(str) > limit {
		return fmt.Errorf("field '%s' exceeds length limit: %d / %d", fieldName, len(str), limit)
	}
	return nil
}
