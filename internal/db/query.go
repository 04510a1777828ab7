package db

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/opsboard/internal/models"
)

// DateRange matches documents whose [start, end] fields overlap [from, to].
// Dates are YYYY-MM-DD strings, which sort lexically.
func DateRange(startField, endField, from, to string) bson.M {
	f := bson.M{}
	if from != "" {
		f[endField] = bson.M{"$gte": from}
	}
	if to != "" {
		f[startField] = bson.M{"$lte": to}
	}
	return f
}

// BookingQuery translates a booking filter into a Mongo filter. The client
// match is left to views.FilterBookings.
func BookingQuery(f models.BookingFilter) bson.M {
	q := DateRange("start_date", "end_date", f.From, f.To)
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.VehicleID != "" {
		q["vehicle_ids"] = f.VehicleID
	}
	if f.EmployeeID != "" {
		q["crew_ids"] = f.EmployeeID
	}
	return q
}

// HolidayQuery translates a holiday filter into a Mongo filter.
func HolidayQuery(f models.HolidayFilter) bson.M {
	q := DateRange("start_date", "end_date", f.From, f.To)
	if f.EmployeeID != "" {
		q["employee_id"] = f.EmployeeID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// DatesBetween matches documents holding at least one date in [from, to]
// in the array field.
func DatesBetween(field, from, to string) bson.M {
	cond := bson.M{}
	if from != "" {
		cond["$gte"] = from
	}
	if to != "" {
		cond["$lte"] = to
	}
	if len(cond) == 0 {
		return bson.M{}
	}
	return bson.M{field: bson.M{"$elemMatch": cond}}
}

// Between matches a scalar date field in [from, to].
func Between(field, from, to string) bson.M {
	cond := bson.M{}
	if from != "" {
		cond["$gte"] = from
	}
	if to != "" {
		cond["$lte"] = to
	}
	if len(cond) == 0 {
		return bson.M{}
	}
	return bson.M{field: cond}
}

// IDsIn matches documents whose _id is one of ids. Malformed ids are
// dropped, so they simply don't match.
func IDsIn(ids []string) bson.M {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return bson.M{"_id": bson.M{"$in": oids}}
}
