package validators

import (
	"megastrength/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
)

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"customer_name",
			"customer_email",
			"customer_phone",
			"service",
			"preferred_date",
			"preferred_time",
			"urgency",
			"status",
			"location",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"customer_name": bson.M{
				"bsonType":  "string",
				"minLength": 2,
				"maxLength": 100,
			},

			"customer_email": bson.M{
				"bsonType": "string",
			},

			"customer_phone": bson.M{
				"bsonType": "string",
				"pattern":  `^\+[1-9]\d{6,14}$`,
			},

			"service": bson.M{
				"enum": model.Services,
			},

			"vehicle_info": bson.M{
				"bsonType": []string{"object", "null"},
				"properties": bson.M{
					"make":         bson.M{"bsonType": "string", "maxLength": 50},
					"model":        bson.M{"bsonType": "string", "maxLength": 50},
					"year":         bson.M{"bsonType": []string{"int", "long"}},
					"registration": bson.M{"bsonType": "string", "maxLength": 20},
				},
			},

			"preferred_date": bson.M{
				"bsonType": "date",
			},

			"preferred_time": bson.M{
				"bsonType": "string",
				"pattern":  `^([01][0-9]|2[0-3]):[0-5][0-9]$`,
			},

			"urgency": bson.M{
				"enum": []string{model.UrgencyNormal, model.UrgencyUrgent, model.UrgencyEmergency},
			},

			"message": bson.M{
				"bsonType":  "string",
				"maxLength": 500,
			},

			"status": bson.M{
				"enum": model.AllStatuses,
			},

			"estimated_cost": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal", "null"},
				"minimum":  0,
			},

			"actual_cost": bson.M{
				"bsonType": []string{"double", "int", "long", "decimal", "null"},
				"minimum":  0,
			},

			"notes": bson.M{
				"bsonType":  "string",
				"maxLength": 2000,
			},

			"location": bson.M{
				"enum": model.Locations,
			},

			"is_paid": bson.M{
				"bsonType": "bool",
			},

			"payment_method": bson.M{
				"enum": []any{"", nil, model.PaymentCash, model.PaymentMpesa, model.PaymentCard, model.PaymentBankTransfer},
			},

			"slot_key": bson.M{
				"bsonType": "string",
			},

			"created_at": bson.M{
				"bsonType": "date",
			},

			"updated_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "token", "expires_at"},
		"properties": bson.M{
			"_id":        bson.M{"bsonType": "string"},
			"token":      bson.M{"bsonType": "string"},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
