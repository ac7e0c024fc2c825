package rpc

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

type Appointment struct {
	Id          string
	DoctorId    string
	PatientId   string
	ScheduledAt *timestamppb.Timestamp
	EndAt       *timestamppb.Timestamp
	Status      string
	CreatedAt   *timestamppb.Timestamp
	UpdatedAt   *timestamppb.Timestamp
}

func (m *Appointment) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.DoctorId)
	b = appendString(b, 3, m.PatientId)
	b = appendTimestamp(b, 4, m.ScheduledAt)
	b = appendTimestamp(b, 5, m.EndAt)
	b = appendString(b, 6, m.Status)
	b = appendTimestamp(b, 7, m.CreatedAt)
	b = appendTimestamp(b, 8, m.UpdatedAt)
	return b
}

func (m *Appointment) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Id = f.str()
		case 2:
			m.DoctorId = f.str()
		case 3:
			m.PatientId = f.str()
		case 4:
			m.ScheduledAt, err = parseTimestamp(f.bytes)
		case 5:
			m.EndAt, err = parseTimestamp(f.bytes)
		case 6:
			m.Status = f.str()
		case 7:
			m.CreatedAt, err = parseTimestamp(f.bytes)
		case 8:
			m.UpdatedAt, err = parseTimestamp(f.bytes)
		}
		return err
	})
}

// ----- auth -----

type LoginRequest struct {
	Email    string
	Password string
	Role     string
}

func (m *LoginRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.Password)
	return appendString(b, 3, m.Role)
}

func (m *LoginRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Password = f.str()
		case 3:
			m.Role = f.str()
		}
		return nil
	})
}

type LoginResponse struct {
	Token     string
	UserId    string
	Role      string
	ExpiresAt *timestamppb.Timestamp
}

func (m *LoginResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Token)
	b = appendString(b, 2, m.UserId)
	b = appendString(b, 3, m.Role)
	return appendTimestamp(b, 4, m.ExpiresAt)
}

func (m *LoginResponse) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) (err error) {
		switch f.num {
		case 1:
			m.Token = f.str()
		case 2:
			m.UserId = f.str()
		case 3:
			m.Role = f.str()
		case 4:
			m.ExpiresAt, err = parseTimestamp(f.bytes)
		}
		return err
	})
}

type RegisterRequest struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

func (m *RegisterRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Email)
	b = appendString(b, 2, m.Password)
	b = appendString(b, 3, m.Name)
	return appendString(b, 4, m.Phone)
}

func (m *RegisterRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Email = f.str()
		case 2:
			m.Password = f.str()
		case 3:
			m.Name = f.str()
		case 4:
			m.Phone = f.str()
		}
		return nil
	})
}

type RegisterResponse struct {
	UserId string
	Token  string
}

func (m *RegisterResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.UserId)
	return appendString(b, 2, m.Token)
}

func (m *RegisterResponse) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.UserId = f.str()
		case 2:
			m.Token = f.str()
		}
		return nil
	})
}

// ----- appointments -----

type BookAppointmentRequest struct {
	DoctorId  string
	PatientId string
	Date      string // YYYY-MM-DD
	Time      string // HH:MM
}

func (m *BookAppointmentRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.DoctorId)
	b = appendString(b, 2, m.PatientId)
	b = appendString(b, 3, m.Date)
	return appendString(b, 4, m.Time)
}

func (m *BookAppointmentRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.DoctorId = f.str()
		case 2:
			m.PatientId = f.str()
		case 3:
			m.Date = f.str()
		case 4:
			m.Time = f.str()
		}
		return nil
	})
}

type BookAppointmentResponse struct {
	AppointmentId string
	Appointment   *Appointment
}

func (m *BookAppointmentResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.AppointmentId)
	if m.Appointment != nil {
		b = appendMessage(b, 2, m.Appointment)
	}
	return b
}

func (m *BookAppointmentResponse) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.AppointmentId = f.str()
		case 2:
			m.Appointment = &Appointment{}
			return m.Appointment.UnmarshalWire(f.bytes)
		}
		return nil
	})
}

type RescheduleAppointmentRequest struct {
	Id   string
	Date string
	Time string
}

func (m *RescheduleAppointmentRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	b = appendString(b, 2, m.Date)
	return appendString(b, 3, m.Time)
}

func (m *RescheduleAppointmentRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Id = f.str()
		case 2:
			m.Date = f.str()
		case 3:
			m.Time = f.str()
		}
		return nil
	})
}

type CancelAppointmentRequest struct {
	Id string
}

func (m *CancelAppointmentRequest) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.Id)
}

func (m *CancelAppointmentRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Id = f.str()
		}
		return nil
	})
}

type GetAppointmentRequest struct {
	Id string
}

func (m *GetAppointmentRequest) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.Id)
}

func (m *GetAppointmentRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Id = f.str()
		}
		return nil
	})
}

type UpdateStatusRequest struct {
	Id     string
	Status string
}

func (m *UpdateStatusRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Id)
	return appendString(b, 2, m.Status)
}

func (m *UpdateStatusRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Id = f.str()
		case 2:
			m.Status = f.str()
		}
		return nil
	})
}

type AppointmentResponse struct {
	Appointment *Appointment
}

func (m *AppointmentResponse) AppendWire(b []byte) []byte {
	if m.Appointment != nil {
		b = appendMessage(b, 1, m.Appointment)
	}
	return b
}

func (m *AppointmentResponse) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.Appointment = &Appointment{}
			return m.Appointment.UnmarshalWire(f.bytes)
		}
		return nil
	})
}

// ----- queries -----

type AvailableSlotsRequest struct {
	DoctorId string
	Date     string
}

func (m *AvailableSlotsRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.DoctorId)
	return appendString(b, 2, m.Date)
}

func (m *AvailableSlotsRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.DoctorId = f.str()
		case 2:
			m.Date = f.str()
		}
		return nil
	})
}

type AvailableSlotsResponse struct {
	Date  string
	Slots []string
}

func (m *AvailableSlotsResponse) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.Date)
	for _, s := range m.Slots {
		b = appendString(b, 2, s)
	}
	return b
}

func (m *AvailableSlotsResponse) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.Date = f.str()
		case 2:
			m.Slots = append(m.Slots, f.str())
		}
		return nil
	})
}

type ScheduleRequest struct {
	DoctorId    string
	StartDate   string
	EndDate     string
	PatientName string
}

func (m *ScheduleRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.DoctorId)
	b = appendString(b, 2, m.StartDate)
	b = appendString(b, 3, m.EndDate)
	return appendString(b, 4, m.PatientName)
}

func (m *ScheduleRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.DoctorId = f.str()
		case 2:
			m.StartDate = f.str()
		case 3:
			m.EndDate = f.str()
		case 4:
			m.PatientName = f.str()
		}
		return nil
	})
}

type HistoryRequest struct {
	PatientId string
	StartDate string
	EndDate   string
}

func (m *HistoryRequest) AppendWire(b []byte) []byte {
	b = appendString(b, 1, m.PatientId)
	b = appendString(b, 2, m.StartDate)
	return appendString(b, 3, m.EndDate)
}

func (m *HistoryRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		switch f.num {
		case 1:
			m.PatientId = f.str()
		case 2:
			m.StartDate = f.str()
		case 3:
			m.EndDate = f.str()
		}
		return nil
	})
}

type UpcomingRequest struct {
	PatientId string
}

func (m *UpcomingRequest) AppendWire(b []byte) []byte {
	return appendString(b, 1, m.PatientId)
}

func (m *UpcomingRequest) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num == 1 {
			m.PatientId = f.str()
		}
		return nil
	})
}

type AppointmentListResponse struct {
	Appointments []*Appointment
}

func (m *AppointmentListResponse) AppendWire(b []byte) []byte {
	for _, a := range m.Appointments {
		b = appendMessage(b, 1, a)
	}
	return b
}

func (m *AppointmentListResponse) UnmarshalWire(b []byte) error {
	return eachField(b, func(f field) error {
		if f.num != 1 {
			return nil
		}
		a := &Appointment{}
		if err := a.UnmarshalWire(f.bytes); err != nil {
			return err
		}
		m.Appointments = append(m.Appointments, a)
		return nil
	})
}
