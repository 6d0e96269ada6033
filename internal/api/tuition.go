package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/mmynk/tuitionbook/internal/forms"
	"github.com/mmynk/tuitionbook/internal/models"
)

// Dashboard fetches the headline numbers.
func (c *Client) Dashboard(ctx context.Context) (*models.Dashboard, error) {
	d := &models.Dashboard{}
	if err := c.get(ctx, "/dashboard", nil, d); err != nil {
		return nil, err
	}
	return d, nil
}

// MonthlyCollection fetches collected and pending totals per month.
func (c *Client) MonthlyCollection(ctx context.Context) ([]models.MonthlyCollection, error) {
	var out []models.MonthlyCollection
	if err := c.get(ctx, "/dashboard/monthly-collection", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GenerateFees creates the missing fee records of active students.
func (c *Client) GenerateFees(ctx context.Context, exceptThisMonth bool) (string, error) {
	return c.send(ctx, http.MethodGet, "/generate-fees", nil, boolQuery("exceptThisMonth", exceptThisMonth))
}

// Classes lists the tuition's classes.
func (c *Client) Classes(ctx context.Context) ([]models.Class, error) {
	var out []models.Class
	if err := c.get(ctx, "/class/index", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateClass adds a class.
func (c *Client) CreateClass(ctx context.Context, f forms.Class) (*models.Class, string, error) {
	class := &models.Class{}
	msg, err := c.sendDecode(ctx, http.MethodPost, "/class/store", f, class)
	if err != nil {
		return nil, "", err
	}
	return class, msg, nil
}

// UpdateClass edits the class with classUUID.
func (c *Client) UpdateClass(ctx context.Context, classUUID string, f forms.Class) (*models.Class, string, error) {
	class := &models.Class{}
	msg, err := c.sendDecode(ctx, http.MethodPut, "/class/edit/"+url.PathEscape(classUUID), f, class)
	if err != nil {
		return nil, "", err
	}
	return class, msg, nil
}

// Students lists all students. Filtering happens on the client.
func (c *Client) Students(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := c.get(ctx, "/student/index", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Student fetches one student with fee records.
func (c *Client) Student(ctx context.Context, id string) (*models.Student, error) {
	st := &models.Student{}
	if err := c.get(ctx, "/student/index/"+url.PathEscape(id), nil, st); err != nil {
		return nil, err
	}
	return st, nil
}

// CreateStudent enrolls a student.
func (c *Client) CreateStudent(ctx context.Context, f forms.Student) (*models.Student, string, error) {
	st := &models.Student{}
	msg, err := c.sendDecode(ctx, http.MethodPost, "/student/store", f, st)
	if err != nil {
		return nil, "", err
	}
	return st, msg, nil
}

// UpdateStudent edits the student with studentUUID.
func (c *Client) UpdateStudent(ctx context.Context, studentUUID string, f forms.Student) (*models.Student, string, error) {
	st := &models.Student{}
	msg, err := c.sendDecode(ctx, http.MethodPut, "/student/update/"+url.PathEscape(studentUUID), f, st)
	if err != nil {
		return nil, "", err
	}
	return st, msg, nil
}

// ChangeClass moves the students to classUUID in one request.
func (c *Client) ChangeClass(ctx context.Context, keys []string, classUUID string, updateFees bool) (string, error) {
	return c.send(ctx, http.MethodPut, "/student/change/class",
		forms.BulkClass{StudentIDs: keys, Class: classUUID},
		boolQuery("updateFees", updateFees),
	)
}

// ChangeStatus activates or deactivates the students in one request.
func (c *Client) ChangeStatus(ctx context.Context, keys []string, active bool) (string, error) {
	return c.send(ctx, http.MethodPut, "/student/change/status",
		forms.BulkStatus{StudentIDs: keys, Status: models.StatusString(active)},
		nil,
	)
}

// AddFee creates a fee record for the student. The returned record is not
// checked; the ledger rejects incomplete ones.
func (c *Client) AddFee(ctx context.Context, studentID string, f forms.AddFee) (models.Fee, string, error) {
	var fee models.Fee
	msg, err := c.sendDecode(ctx, http.MethodPost, "/add-fees/"+url.PathEscape(studentID), f, &fee)
	if err != nil {
		return models.Fee{}, "", err
	}
	return fee, msg, nil
}

// MarkFeePaid marks the fee paid.
func (c *Client) MarkFeePaid(ctx context.Context, feeUUID string) error {
	_, err := c.send(ctx, http.MethodPut, "/fee/update/"+url.PathEscape(feeUUID), forms.FeeUpdate{IsPaid: true}, nil)
	return err
}
