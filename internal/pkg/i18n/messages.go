package i18n

const (
	LoginRequired       Key = "guard.login_required"
	LoginRequiredDetail Key = "guard.login_required.detail"
	Unauthorized        Key = "guard.unauthorized"
	UnauthorizedDetail  Key = "guard.unauthorized.detail"
	SessionResolving    Key = "guard.resolving"

	LoginSuccess         Key = "auth.login.success"
	LoginFailed          Key = "auth.login.failed"
	InvalidCredentials   Key = "auth.login.invalid_credentials"
	RequiredFields       Key = "form.required_fields"
	InvalidEmail         Key = "form.invalid_email"
	InvalidPhone         Key = "form.invalid_phone"
	ShortPassword        Key = "form.short_password"
	PasswordMismatch     Key = "form.password_mismatch"
	RegisterSuccess      Key = "auth.register.success"
	RegisterFailed       Key = "auth.register.failed"
	AlreadyRegistered    Key = "auth.register.duplicate"
	LogoutSuccess        Key = "auth.logout.success"
	ResetLinkSent        Key = "auth.reset.sent"
	ResetLinkFailed      Key = "auth.reset.failed"
	PasswordUpdated      Key = "auth.update_password.success"
	PasswordUpdateFailed Key = "auth.update_password.failed"
	TooManyAttempts      Key = "auth.rate_limited"

	RequestSent         Key = "request.success"
	RequestSentDetail   Key = "request.success.detail"
	RequestFailed       Key = "request.failed"
	RequestFailedDetail Key = "request.failed.detail"
	FileTooLarge        Key = "request.file_too_large"
	FileCountLimit      Key = "request.file_count_limit"
	FileUploadFailed    Key = "request.file_upload_failed"
	ContactSent         Key = "contact.success"
	ContactFailed       Key = "contact.failed"

	ProfileUpdated       Key = "profile.updated"
	ProjectCreated       Key = "project.created"
	ProjectStatusUpdated Key = "project.status_updated"
	InvalidStatus        Key = "status.invalid"
	RequestStatusUpdated Key = "request.status_updated"
	RoleUpdated          Key = "user.role_updated"
	Deleted              Key = "record.deleted"
	LoadFailed           Key = "record.load_failed"

	StrengthVeryWeak   Key = "strength.very_weak"
	StrengthWeak       Key = "strength.weak"
	StrengthMedium     Key = "strength.medium"
	StrengthStrong     Key = "strength.strong"
	StrengthVeryStrong Key = "strength.very_strong"
)

var catalog = map[Key]Text{
	LoginRequired:       {Arabic: "مطلوب تسجيل الدخول", English: "Login required"},
	LoginRequiredDetail: {Arabic: "الرجاء تسجيل الدخول للوصول لهذه الصفحة.", English: "Please log in to access this page."},
	Unauthorized:        {Arabic: "غير مصرح", English: "Unauthorized"},
	UnauthorizedDetail:  {Arabic: "ليس لديك صلاحية للوصول لهذه الصفحة.", English: "You do not have permission to access this page."},
	SessionResolving:    {Arabic: "جارِ التحقق من الجلسة...", English: "Checking your session..."},

	LoginSuccess:         {Arabic: "✅ تم تسجيل الدخول بنجاح", English: "✅ Logged in successfully"},
	LoginFailed:          {Arabic: "❌ فشل تسجيل الدخول", English: "❌ Login failed"},
	InvalidCredentials:   {Arabic: "البريد الإلكتروني أو كلمة المرور غير صحيحة.", English: "Invalid email or password."},
	RequiredFields:       {Arabic: "الرجاء تعبئة جميع الحقول المطلوبة.", English: "Please fill in all required fields."},
	InvalidEmail:         {Arabic: "الرجاء إدخال بريد إلكتروني صحيح.", English: "Please enter a valid email address."},
	InvalidPhone:         {Arabic: "الرجاء إدخال رقم جوال سعودي صحيح (مثال: 0512345678).", English: "Please enter a valid Saudi phone number (e.g., 0512345678)."},
	ShortPassword:        {Arabic: "يجب أن تتكون كلمة المرور من 8 أحرف على الأقل.", English: "Password must be at least 8 characters long."},
	PasswordMismatch:     {Arabic: "الرجاء التأكد من تطابق كلمتي المرور.", English: "Please make sure both passwords match."},
	RegisterSuccess:      {Arabic: "✅ تم إنشاء الحساب بنجاح", English: "✅ Account created successfully"},
	RegisterFailed:       {Arabic: "❌ خطأ في التسجيل", English: "❌ Registration failed"},
	AlreadyRegistered:    {Arabic: "هذا البريد الإلكتروني أو رقم الجوال مسجل مسبقاً.", English: "This email or phone number is already registered."},
	LogoutSuccess:        {Arabic: "تم تسجيل الخروج", English: "Logged out"},
	ResetLinkSent:        {Arabic: "✅ تم إرسال الرابط بنجاح", English: "✅ Reset link sent"},
	ResetLinkFailed:      {Arabic: "❌ خطأ في إرسال الرابط", English: "❌ Could not send the reset link"},
	PasswordUpdated:      {Arabic: "✅ تم تحديث كلمة المرور", English: "✅ Password updated"},
	PasswordUpdateFailed: {Arabic: "انتهت صلاحية الرابط أو أنه غير صالح. يرجى طلب رابط جديد.", English: "The link has expired or is invalid. Please request a new one."},
	TooManyAttempts:      {Arabic: "محاولات كثيرة، يرجى المحاولة لاحقاً.", English: "Too many attempts, please try again later."},

	RequestSent:         {Arabic: "✅ تم إرسال طلبك بنجاح", English: "✅ Your request has been sent successfully"},
	RequestSentDetail:   {Arabic: "شكراً لاهتمامك، سنتواصل معك قريباً لمناقشة التفاصيل.", English: "Thank you for your interest, we will contact you soon to discuss the details."},
	RequestFailed:       {Arabic: "❌ فشل إرسال الطلب", English: "❌ Failed to send request"},
	RequestFailedDetail: {Arabic: "حدث خطأ ما، يرجى المحاولة مرة أخرى.", English: "Something went wrong, please try again."},
	FileTooLarge:        {Arabic: "حجم الملف كبير جداً (الحد الأقصى 10MB)", English: "File is too large (Max 10MB)"},
	FileCountLimit:      {Arabic: "لا يمكن رفع أكثر من 5 ملفات", English: "Cannot upload more than 5 files"},
	FileUploadFailed:    {Arabic: "فشل رفع بعض الملفات", English: "Failed to upload some files."},
	ContactSent:         {Arabic: "✅ تم استلام رسالتك", English: "✅ Your message has been received"},
	ContactFailed:       {Arabic: "❌ فشل إرسال الرسالة", English: "❌ Failed to send message"},

	ProfileUpdated:       {Arabic: "تم تحديث الملف الشخصي", English: "Profile updated"},
	ProjectCreated:       {Arabic: "تم إنشاء المشروع", English: "Project created"},
	ProjectStatusUpdated: {Arabic: "تم تحديث حالة المشروع", English: "Project status updated"},
	InvalidStatus:        {Arabic: "حالة غير صالحة", English: "Invalid status"},
	RequestStatusUpdated: {Arabic: "تم تحديث حالة الطلب", English: "Request status updated"},
	RoleUpdated:          {Arabic: "تم تحديث دور المستخدم", English: "User role updated"},
	Deleted:              {Arabic: "تم الحذف", English: "Deleted"},
	LoadFailed:           {Arabic: "تعذر تحميل البيانات", English: "Could not load data"},

	StrengthVeryWeak:   {Arabic: "ضعيف جداً", English: "Very weak"},
	StrengthWeak:       {Arabic: "ضعيف", English: "Weak"},
	StrengthMedium:     {Arabic: "متوسط", English: "Medium"},
	StrengthStrong:     {Arabic: "قوي", English: "Strong"},
	StrengthVeryStrong: {Arabic: "قوي جداً", English: "Very strong"},
}
