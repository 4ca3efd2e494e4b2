package service

import (
	"fmt"
	"strconv"

	"absence-timeline-bot/internal/absence"
	"absence-timeline-bot/internal/dates"
	"absence-timeline-bot/internal/models"
)

func toPerson(u models.User) absence.Person {
	return absence.Person{
		ID:          strconv.FormatUint(uint64(u.ID), 10),
		DisplayName: u.DisplayName(),
		Email:       u.Email,
		Team:        u.Team,
		Department:  u.Department,
	}
}

// toRecord переводит строку хранилища в запись движка
func toRecord(p models.AbsencePeriod) (absence.Record, error) {
	// Запись без сотрудника нельзя показать на графике
	if p.User.ID == 0 {
		return absence.Record{}, fmt.Errorf("absence %s: %w", p.ID, ErrUserNotFound)
	}

	start, err := dates.ParseISO(p.StartDate)
	if err != nil {
		return absence.Record{}, fmt.Errorf("absence %s: start date: %w", p.ID, err)
	}
	end, err := dates.ParseISO(p.EndDate)
	if err != nil {
		return absence.Record{}, fmt.Errorf("absence %s: end date: %w", p.ID, err)
	}

	var requested = start
	if p.RequestedOn != "" {
		if requested, err = dates.ParseISO(p.RequestedOn); err != nil {
			return absence.Record{}, fmt.Errorf("absence %s: requested date: %w", p.ID, err)
		}
	}

	status, err := absence.ParseStatus(p.Status)
	if err != nil {
		return absence.Record{}, fmt.Errorf("absence %s: %w", p.ID, err)
	}

	record := absence.Record{
		ID:          p.ID,
		Person:      toPerson(p.User),
		Category:    p.Category,
		Status:      status,
		StartDate:   start,
		EndDate:     end,
		RequestedOn: requested,
		TotalDays:   p.TotalDays,
		Notes:       p.Notes,
		ExternalID:  p.ExternalID,
		DecidedBy:   p.DecidedBy,
	}
	if err := record.Validate(); err != nil {
		return absence.Record{}, err
	}
	return record, nil
}

func toOptions(options []models.ChoiceOption) []absence.Option {
	result := make([]absence.Option, 0, len(options))
	for _, o := range options {
		result = append(result, absence.Option{Key: o.Key, Label: o.Label})
	}
	return result
}
