package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/opsboard/internal/db"
	"github.com/ukydev/opsboard/internal/models"
)

func TestListEmployees(t *testing.T) {
	f := newFixture(t)
	f.employees.On("FindEmployees", mock.Anything, bson.M{"active": true}).Return([]models.Employee{{Name: "Sam"}}, nil)

	w := call(f.api.ListEmployees, "GET", "/api/employees?active=true", "", "", models.RoleManager)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Sam"`)

	w = call(f.api.ListEmployees, "GET", "/api/employees?active=maybe", "", "", models.RoleManager)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	f.assertExpectations(t)
}

func TestCreateEmployee(t *testing.T) {
	t.Run("active by default", func(t *testing.T) {
		f := newFixture(t)
		f.employees.On("InsertEmployee", mock.Anything, mock.MatchedBy(func(e *models.Employee) bool {
			return e.Name == "Sam Driver" && e.Active && e.HolidayAllowance == 25
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Employee).ID = primitive.NewObjectID()
		}).Return(nil)

		w := call(f.api.CreateEmployee, "POST", "/api/employees", `{"name":"Sam Driver","holiday_allowance":25}`, "", models.RoleManager)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var got models.Employee
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.False(t, got.ID.IsZero())
		require.Len(t, f.events, 1)
		assert.Equal(t, models.OpCreated, f.events[0].Op)
	})

	t.Run("validation", func(t *testing.T) {
		f := newFixture(t)
		for _, body := range []string{
			`{"holiday_allowance":25}`,
			`{"name":"Sam","email":"not-an-email"}`,
			`{"name":"Sam","holiday_allowance":-1}`,
			`{"name":"Sam","start_date":"01/06/2024"}`,
		} {
			w := call(f.api.CreateEmployee, "POST", "/api/employees", body, "", models.RoleManager)
			assert.Equal(t, http.StatusBadRequest, w.Code, body)
		}
		assert.Empty(t, f.events)
	})
}

func TestUpdateEmployee(t *testing.T) {
	f := newFixture(t)
	id := primitive.NewObjectID()
	f.employees.On("FindEmployeeByID", mock.Anything, id.Hex()).Return(&models.Employee{ID: id, Name: "Sam", Active: true, HolidayAllowance: 20}, nil)
	f.employees.On("UpdateEmployee", mock.Anything, id.Hex(), mock.MatchedBy(func(e models.Employee) bool {
		return !e.Active && e.HolidayAllowance == 22
	})).Return(nil)

	w := call(f.api.UpdateEmployee, "PUT", "/api/employees/"+id.Hex(), `{"name":"Sam","holiday_allowance":22,"active":false}`, id.Hex(), models.RoleManager)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, f.events, 1)
	assert.Equal(t, models.OpUpdated, f.events[0].Op)
	f.assertExpectations(t)
}

func TestGetAndDeleteEmployee(t *testing.T) {
	f := newFixture(t)
	f.employees.On("FindEmployeeByID", mock.Anything, "missing").Return(nil, db.ErrNotFound)
	f.employees.On("DeleteEmployee", mock.Anything, "e1").Return(nil)

	w := call(f.api.GetEmployee, "GET", "/api/employees/missing", "", "missing", models.RoleManager)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = call(f.api.DeleteEmployee, "DELETE", "/api/employees/e1", "", "e1", models.RoleManager)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, f.events, 1)
	assert.Equal(t, models.OpDeleted, f.events[0].Op)
	f.assertExpectations(t)
}
