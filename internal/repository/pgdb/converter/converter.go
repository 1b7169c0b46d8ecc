package converter

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/spams12/gege/internal/domain"
	"github.com/spams12/gege/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// CategoryConverter преобразует сущности Category между domain и моделью PostgreSQL.
type CategoryConverter interface {
	ToEntity(model *CategoryModel) *domain.Category
}

// BrandConverter преобразует сущности Brand из модели PostgreSQL.
type BrandConverter interface {
	ToEntity(model *BrandModel) *domain.Brand
}

// CustomerConverter преобразует профиль покупателя между domain и моделью PostgreSQL.
type CustomerConverter interface {
	ToModel(entity *domain.Customer) *CustomerModel
	ToEntity(model *CustomerModel) *domain.Customer
}

// BidConverter преобразует сущности Bid между domain и моделью PostgreSQL.
type BidConverter interface {
	ToModel(entity *domain.Bid) *BidModel
	ToEntity(model *BidModel) *domain.Bid
}

// OrderConverter преобразует заказ вместе с позициями.
type OrderConverter interface {
	ToModel(entity *domain.Order) *OrderModel
	ToEntity(model *OrderModel) *domain.Order
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type productConverter struct{}

func NewProductConverter() ProductConverter { return productConverter{} }

func (productConverter) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:                  entity.ID,
		Name:                entity.Name,
		Slug:                entity.Slug,
		CategoryID:          entity.CategoryID,
		Brand:               entity.Brand,
		Price:               entity.Price,
		DiscountPrice:       ConvertDecimalPtr(entity.DiscountPrice),
		Stock:               entity.Stock,
		IsActive:            entity.IsActive,
		IsFeatured:          entity.IsFeatured,
		IsAuction:           entity.IsAuction,
		StartingBid:         entity.StartingBid,
		MinimumBidIncrement: entity.MinimumBidIncrement,
		CurrentBid:          ConvertDecimalPtr(entity.CurrentBid),
		BidCount:            entity.BidCount,
		AuctionStartDate:    ConvertPointerTime(entity.AuctionStartDate),
		AuctionEndDate:      ConvertPointerTime(entity.AuctionEndDate),
		CreatedAt:           entity.CreatedAt,
		UpdatedAt:           ConvertPointerTime(entity.UpdatedAt),
	}
}

func (productConverter) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:                  model.ID,
		Name:                model.Name,
		Slug:                model.Slug,
		CategoryID:          model.CategoryID,
		Brand:               model.Brand,
		Price:               model.Price,
		DiscountPrice:       ConvertNullDecimal(model.DiscountPrice),
		Stock:               model.Stock,
		IsActive:            model.IsActive,
		IsFeatured:          model.IsFeatured,
		IsAuction:           model.IsAuction,
		StartingBid:         model.StartingBid,
		MinimumBidIncrement: model.MinimumBidIncrement,
		CurrentBid:          ConvertNullDecimal(model.CurrentBid),
		BidCount:            model.BidCount,
		AuctionStartDate:    ConvertPointerTime(model.AuctionStartDate),
		AuctionEndDate:      ConvertPointerTime(model.AuctionEndDate),
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           ConvertPointerTime(model.UpdatedAt),
	}
}

type categoryConverter struct{}

func NewCategoryConverter() CategoryConverter { return categoryConverter{} }

func (categoryConverter) ToEntity(model *CategoryModel) *domain.Category {
	return &domain.Category{
		ID:         model.ID,
		Name:       model.Name,
		Slug:       model.Slug,
		ParentID:   model.ParentID,
		CreatedAt:  model.CreatedAt,
		UpdatedAt:  ConvertPointerTime(model.UpdatedAt),
		IsArchived: model.IsArchived,
	}
}

type brandConverter struct{}

func NewBrandConverter() BrandConverter { return brandConverter{} }

func (brandConverter) ToEntity(model *BrandModel) *domain.Brand {
	return &domain.Brand{
		ID:          model.ID,
		Name:        model.Name,
		Logo:        model.Logo,
		Description: model.Description,
		Website:     model.Website,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   ConvertPointerTime(model.UpdatedAt),
	}
}

type customerConverter struct{}

func NewCustomerConverter() CustomerConverter { return customerConverter{} }

func (customerConverter) ToModel(entity *domain.Customer) *CustomerModel {
	a := entity.Address
	return &CustomerModel{
		ID:    entity.ID,
		Name:  entity.Name,
		Email: entity.Email,
		Phone: entity.Phone,
		Address: CustomerAddressModel{
			Street:  a.Street,
			City:    a.City,
			Country: a.Country,
			Full:    a.Full,
		},
		TotalSpent:  entity.TotalSpent,
		TotalOrders: entity.TotalOrders,
		LastOrderAt: ConvertPointerTime(entity.LastOrderAt),
		CreatedAt:   entity.JoinedAt,
		UpdatedAt:   ConvertPointerTime(entity.UpdatedAt),
	}
}

func (customerConverter) ToEntity(model *CustomerModel) *domain.Customer {
	a := model.Address
	return &domain.Customer{
		ID:    model.ID,
		Name:  model.Name,
		Email: model.Email,
		Phone: model.Phone,
		Address: domain.CustomerAddress{
			Street:  a.Street,
			City:    a.City,
			Country: a.Country,
			Full:    a.Full,
		},
		TotalSpent:  model.TotalSpent,
		TotalOrders: model.TotalOrders,
		LastOrderAt: ConvertPointerTime(model.LastOrderAt),
		JoinedAt:    model.CreatedAt,
		UpdatedAt:   ConvertPointerTime(model.UpdatedAt),
	}
}

type bidConverter struct{}

func NewBidConverter() BidConverter { return bidConverter{} }

func (bidConverter) ToModel(entity *domain.Bid) *BidModel {
	return &BidModel{
		ID:          entity.ID,
		ProductID:   entity.ProductID,
		Amount:      entity.Amount,
		BidderID:    entity.BidderID,
		BidderName:  entity.BidderName,
		BidderPhone: entity.BidderPhone,
		CreatedAt:   entity.CreatedAt,
	}
}

func (bidConverter) ToEntity(model *BidModel) *domain.Bid {
	return &domain.Bid{
		ID:          model.ID,
		ProductID:   model.ProductID,
		Amount:      model.Amount,
		BidderID:    model.BidderID,
		BidderName:  model.BidderName,
		BidderPhone: model.BidderPhone,
		CreatedAt:   model.CreatedAt,
	}
}

type orderConverter struct{}

func NewOrderConverter() OrderConverter { return orderConverter{} }

func (orderConverter) ToModel(entity *domain.Order) *OrderModel {
	items := make([]OrderItemModel, 0, len(entity.Items))
	for i, it := range entity.Items {
		items = append(items, OrderItemModel{
			OrderID:   entity.ID,
			Position:  i,
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}

	a := entity.ShippingAddress
	return &OrderModel{
		ID:            entity.ID,
		CustomerID:    entity.CustomerID,
		CustomerName:  entity.CustomerName,
		CustomerEmail: entity.CustomerEmail,
		CustomerPhone: entity.CustomerPhone,
		ShippingAddress: AddressModel{
			Name:       a.Name,
			Address:    a.Address,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Email:      a.Email,
			Phone:      a.Phone,
		},
		Subtotal:       entity.Subtotal,
		Shipping:       entity.Shipping,
		Discount:       entity.Discount,
		Total:          entity.Total,
		ClientTotal:    entity.ClientTotal,
		Status:         string(entity.Status),
		PaymentMethod:  entity.PaymentMethod,
		ShippingMethod: entity.ShippingMethod,
		CreatedAt:      entity.CreatedAt,
		IdempotencyKey: ConvertEmptyString(entity.IdempotencyKey),
		Items:          items,
	}
}

func (orderConverter) ToEntity(model *OrderModel) *domain.Order {
	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, it := range model.Items {
		items = append(items, domain.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Quantity:  it.Quantity,
			Total:     it.Total,
		})
	}

	a := model.ShippingAddress
	return &domain.Order{
		ID:            model.ID,
		CustomerID:    model.CustomerID,
		CustomerName:  model.CustomerName,
		CustomerEmail: model.CustomerEmail,
		CustomerPhone: model.CustomerPhone,
		Items:         items,
		ShippingAddress: domain.Address{
			Name:       a.Name,
			Address:    a.Address,
			City:       a.City,
			PostalCode: a.PostalCode,
			Country:    a.Country,
			Email:      a.Email,
			Phone:      a.Phone,
		},
		Subtotal:       model.Subtotal,
		Shipping:       model.Shipping,
		Discount:       model.Discount,
		Total:          model.Total,
		ClientTotal:    model.ClientTotal,
		Status:         domain.OrderStatus(model.Status),
		PaymentMethod:  model.PaymentMethod,
		ShippingMethod: model.ShippingMethod,
		CreatedAt:      model.CreatedAt,
		IdempotencyKey: ConvertNullString(model.IdempotencyKey),
	}
}

type outboxEventConverter struct{}

func NewOutboxEventConverter() OutboxEventConverter { return outboxEventConverter{} }

func (outboxEventConverter) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   string(entity.EventType),
		AggregateID: entity.AggregateID,
		Payload:     entity.Payload,
		Status:      string(entity.Status),
		Attempts:    entity.Attempts,
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: ConvertPointerTime(entity.ProcessedAt),
	}
}

func (outboxEventConverter) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   usecase.OutboxEventType(model.EventType),
		AggregateID: model.AggregateID,
		Payload:     model.Payload,
		Status:      usecase.OutboxStatus(model.Status),
		Attempts:    model.Attempts,
		CreatedAt:   model.CreatedAt,
		ProcessedAt: ConvertPointerTime(model.ProcessedAt),
	}
}

func (c outboxEventConverter) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	res := make([]*usecase.OutboxEvent, 0, len(models))
	for _, m := range models {
		res = append(res, c.ToEntity(m))
	}

	return res
}

func ConvertPointerTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t

	return &v
}

func ConvertNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal

	return &v
}

func ConvertDecimalPtr(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}

	return decimal.NewNullDecimal(*d)
}

// ConvertEmptyString сохраняет пустую строку как NULL.
func ConvertEmptyString(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func ConvertNullString(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
